package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/hotelops/hotel-backend/internal/handler"
	"github.com/hotelops/hotel-backend/internal/middleware"
	"github.com/hotelops/hotel-backend/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers login, token refresh and logout under /api/auth
// and the authenticated /api/me profile endpoint.  Logout accepts either a
// refresh token or a bearer token, so it sits outside the JWT group.
// loginLimit guards the password check against guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, loginLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, loginLimit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret), staff())
}

// staff accepts every known role; it rejects tokens minted with a role
// this service does not recognise.
func staff() echo.MiddlewareFunc {
	return middleware.RequireRole(model.RoleAdmin, model.RoleUser)
}

// apiGroup returns the authenticated /api<prefix> group.
func apiGroup(e *echo.Echo, prefix, jwtSecret string, m ...echo.MiddlewareFunc) *echo.Group {
	mw := append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), staff()}, m...)
	return e.Group("/api"+prefix, mw...)
}
