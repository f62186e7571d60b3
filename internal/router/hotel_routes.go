package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/handler"
	"github.com/hotelops/hotel-backend/internal/middleware"
	"github.com/hotelops/hotel-backend/internal/model"
)

// RegisterBookings registers the booking lifecycle.  The fixed paths
// /alertas and /vencidas are matched before /:id.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := apiGroup(e, "/bookings", jwtSecret)
	g.POST("", b.Create)
	g.GET("", b.List)
	g.GET("/alertas", b.Alerts)
	g.GET("/vencidas", b.Overdue)
	g.GET("/:id", b.Get)
	g.PUT("/:id", b.Update)
	g.DELETE("/:id", b.Delete)
	g.POST("/:id/refund", b.Refund)
}

// RegisterClients registers client management with soft delete.
func RegisterClients(e *echo.Echo, h *handler.ClientHandler, jwtSecret string) {
	g := apiGroup(e, "/clients", jwtSecret)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/restore", h.Restore)
}

// RegisterRooms registers the room catalogue.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, jwtSecret string) {
	g := apiGroup(e, "/rooms", jwtSecret)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterArchives registers the read-only archive.
func RegisterArchives(e *echo.Echo, h *handler.ArchiveHandler, jwtSecret string) {
	g := apiGroup(e, "/archives", jwtSecret)
	g.GET("", h.List)
	g.GET("/estado/:status", h.ByStatus)
	g.GET("/cliente/:client_id", h.ByClient)
	g.GET("/:id", h.Get)
}

// RegisterIncomes registers the income ledger.  The xlsx export is
// admin-only.
func RegisterIncomes(e *echo.Echo, h *handler.IncomeHandler, jwtSecret string) {
	g := apiGroup(e, "/incomes", jwtSecret)
	g.GET("", h.List)
	g.GET("/export", h.Export, middleware.RequireRole(model.RoleAdmin))
	g.GET("/booking/:id", h.ByBooking)
	g.GET("/archive/:id", h.ByArchive)
	g.GET("/client/:id", h.ByClient)
	g.GET("/status/:status", h.ByStatus)
	g.GET("/:id", h.Get)
}
