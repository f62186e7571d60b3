package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness together with the state of the database
// and, when configured, Redis.
type HealthHandler struct {
	DB  *sql.DB
	RDB *redis.Client
}

// Health handles GET /healthz.  The database is required; Redis is
// reported as "disabled" when the client is nil and never fails the check.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	db := "ok"
	if h.DB == nil {
		db = "disabled"
	} else if err := h.DB.PingContext(ctx); err != nil {
		db, status, code = "down", "degraded", http.StatusServiceUnavailable
	}
	cache := "disabled"
	if h.RDB != nil {
		cache = "ok"
		if err := h.RDB.Ping(ctx).Err(); err != nil {
			cache = "down"
		}
	}
	return c.JSON(code, echo.Map{"status": status, "database": db, "redis": cache})
}
