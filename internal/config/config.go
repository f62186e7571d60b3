package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"

	"github.com/joho/godotenv" // optional .env file for local development
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // create missing tables at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing
	Timezone       string // IANA zone wire dates are read and written in

	AdminName     string // name of the admin seeded at startup
	AdminEmail    string // seed admin email; empty disables seeding
	AdminPassword string // seed admin password

	Events EventsConfig
}

// EventsConfig locates the broker exchange, the Redis channel real-time
// clients listen on and the file the log consumer appends to.
type EventsConfig struct {
	AMQPURL         string
	Exchange        string
	Channel         string
	LogPath         string
	ConsumerEnabled bool
}

// SweeperConfig controls the background expiry sweeper.
type SweeperConfig struct {
	Enabled  bool
	Schedule string        // robfig/cron spec, e.g. "@every 60s"
	Lead     time.Duration // near-expiry alert window
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present; variables already set in the environment win.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		Timezone:       envStr("HOTEL_TIMEZONE", "America/Bogota"),
		AdminName:      envStr("ADMIN_NAME", "Administrator"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		Events:         LoadEventsConfig(),
	}
}

// LoadEventsConfig reads the event delivery settings.  RABBITMQ_URL takes
// precedence over AMQP_URL.
func LoadEventsConfig() EventsConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return EventsConfig{
		AMQPURL:         url,
		Exchange:        envStr("EVENTS_EXCHANGE", "hotel.events"),
		Channel:         envStr("EVENTS_CHANNEL", "hotel:events"),
		LogPath:         envStr("EVENTS_LOG_PATH", "logs/notifications.log"),
		ConsumerEnabled: envBool("EVENTS_CONSUMER_ENABLED", true),
	}
}

// LoadSweeperConfig reads the sweeper settings.  A non-positive lead falls
// back to ten minutes.
func LoadSweeperConfig() SweeperConfig {
	c := SweeperConfig{
		Enabled:  envBool("SWEEP_ENABLED", true),
		Schedule: envStr("SWEEP_SCHEDULE", "@every 60s"),
		Lead:     envDur("SWEEP_LEAD", 10*time.Minute),
	}
	if c.Lead <= 0 {
		c.Lead = 10 * time.Minute
	}
	return c
}

// Location resolves the hotel time zone.  An unknown zone is fatal.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Fatalf("invalid HOTEL_TIMEZONE %q: %v", c.Timezone, err)
	}
	return loc
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
