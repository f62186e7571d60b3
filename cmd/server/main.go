package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging before the echo logger exists
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // hotel time zone without system zoneinfo

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/hotelops/hotel-backend/internal/booking"
	"github.com/hotelops/hotel-backend/internal/config"
	"github.com/hotelops/hotel-backend/internal/database"
	"github.com/hotelops/hotel-backend/internal/handler"
	"github.com/hotelops/hotel-backend/internal/middleware"
	"github.com/hotelops/hotel-backend/internal/notify"
	"github.com/hotelops/hotel-backend/internal/queue"
	"github.com/hotelops/hotel-backend/internal/repository"
	"github.com/hotelops/hotel-backend/internal/router"
)

func main() {
	cfg := config.Load()
	sweepCfg := config.LoadSweeperConfig()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("database migrate: %v", err)
		}
	}

	users := repository.NewUserRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		if created {
			log.Printf("seeded admin account %s", cfg.AdminEmail)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting, stats cache and live events disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(glog.INFO)
	e.Validator = handler.NewValidator()

	notifier := notify.Fanout{
		notify.NewRedisPublisher(rdb, cfg.Events.Channel),
		notify.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange),
	}
	opts := booking.Options{Notifier: notifier, Logger: e.Logger, Lead: sweepCfg.Lead, Location: loc}
	st := repository.NewStore(db)
	svc := booking.NewService(st, opts)

	if sweepCfg.Enabled {
		sched, err := booking.NewSweeper(st, opts).Schedule(sweepCfg.Schedule)
		if err != nil {
			log.Fatalf("sweeper: %v", err)
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
		log.Printf("sweeper scheduled (%s, lead %s)", sweepCfg.Schedule, sweepCfg.Lead)
	}

	if cfg.Events.ConsumerEnabled {
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.LogPath); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("event consumer stopped: %v", err)
			}
		}()
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	secret := cfg.JWTSecret
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, RDB: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), secret,
		middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb))
	router.RegisterUsers(e, handler.NewUserHandler(users, cfg.BcryptCost), secret)
	router.RegisterClients(e, handler.NewClientHandler(repository.NewClientRepo(db)), secret)
	router.RegisterRooms(e, handler.NewRoomHandler(repository.NewRoomRepo(db)), secret)
	router.RegisterBookings(e, handler.NewBookingHandler(svc), secret)
	router.RegisterArchives(e, handler.NewArchiveHandler(repository.NewArchiveRepo(db), loc), secret)
	router.RegisterIncomes(e, handler.NewIncomeHandler(repository.NewIncomeRepo(db), loc), secret)
	router.RegisterStats(e, handler.NewStatsHandler(repository.NewStatsRepo(db), loc), secret,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterEvents(e, handler.NewEventsHandler(rdb, cfg.Events.Channel), secret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, tz=%s)", addr, cfg.Env, loc)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
