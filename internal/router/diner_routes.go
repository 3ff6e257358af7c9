package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/aydinmert/tablebook/internal/config"
	"github.com/aydinmert/tablebook/internal/handler"
	"github.com/aydinmert/tablebook/internal/middleware"
)

// RegisterDiner registers diner-scoped endpoints under /v1.  All routes
// require a valid JWT and the DINER role.  Diners can place
// reservations (optionally as a countdown hold), confirm holds, cancel,
// and review their own bookings.  The booking writes sit behind the
// Redis token bucket to blunt scripted grabbing of popular slots.
func RegisterDiner(e *echo.Echo, h *handler.DinerHandler, rdb *redis.Client, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleDiner),
	)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	g.POST("/reservations", h.Create, limiter)
	g.POST("/reservations/:id/confirm", h.ConfirmHold, limiter)
	g.POST("/reservations/:id/cancel", h.Cancel)
	g.GET("/reservations/:id", h.GetOne)
	g.GET("/my-reservations", h.ListMine)
}
