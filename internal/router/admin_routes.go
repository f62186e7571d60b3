package router

import (
	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/handler"
	"github.com/hotelops/hotel-backend/internal/middleware"
	"github.com/hotelops/hotel-backend/internal/model"
)

// RegisterUsers registers staff account management.  Every role may read;
// only admins may create, update or delete.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	g := apiGroup(e, "/users", jwtSecret)
	g.GET("", u.List)
	g.GET("/:id", u.Get)

	admin := middleware.RequireRole(model.RoleAdmin)
	g.POST("", u.Create, admin)
	g.PUT("/:id", u.Update, admin)
	g.DELETE("/:id", u.Delete, admin)
}
