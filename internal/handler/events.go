package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// EventsHandler relays the Redis event channel to dashboards as
// server-sent events.
type EventsHandler struct {
	RDB       *redis.Client
	Channel   string
	KeepAlive time.Duration
}

func NewEventsHandler(rdb *redis.Client, channel string) *EventsHandler {
	return &EventsHandler{RDB: rdb, Channel: channel, KeepAlive: 25 * time.Second}
}

// sseFrame renders one payload as an SSE frame named after its "event"
// field.
func sseFrame(payload string) string {
	var head struct {
		Event string `json:"event"`
	}
	name := "message"
	if json.Unmarshal([]byte(payload), &head) == nil && head.Event != "" {
		name = head.Event
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload)
}

// Stream handles GET /api/events.  It answers 503 when Redis is not
// configured.
func (h *EventsHandler) Stream(c echo.Context) error {
	if h.RDB == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "real-time events are disabled"})
	}
	ctx := c.Request().Context()
	sub := h.RDB.Subscribe(ctx, h.Channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return respondError(c, err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(h.KeepAlive)
	defer ticker.Stop()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprint(w, sseFrame(m.Payload)); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
