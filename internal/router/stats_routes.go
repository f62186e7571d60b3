package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/handler"
)

// RegisterStats registers the dashboard figures behind the response cache.
func RegisterStats(e *echo.Echo, s *handler.StatsHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := apiGroup(e, "/stats", jwtSecret, cache)
	g.GET("/quick-stats", s.QuickStats)
	g.GET("/current-occupancy", s.CurrentOccupancy)
	g.GET("/monthly-revenue", s.MonthlyRevenue)
	g.GET("/daily-revenue", s.DailyRevenue)
	g.GET("/daily-clients", s.DailyClients)
	g.GET("/current-month-payments", s.CurrentMonthPayments)
	g.GET("/top-spenders", s.TopSpenders)
}

// RegisterEvents registers the server-sent event stream.
func RegisterEvents(e *echo.Echo, h *handler.EventsHandler, jwtSecret string) {
	apiGroup(e, "/events", jwtSecret).GET("", h.Stream)
}
