package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4" // Echo web framework used for routing
	"github.com/redis/go-redis/v9"

	"github.com/aydinmert/tablebook/internal/config"
	"github.com/aydinmert/tablebook/internal/handler"
	"github.com/aydinmert/tablebook/internal/middleware"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the request-body validator shared by all routes.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated discovery endpoints: the
// restaurant directory, per-restaurant availability, and the tonight
// and week browse views.  Responses are cached in Redis when a client
// is available; availability tolerates the short TTL staleness.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	g := e.Group("/v1", cache)
	// Restaurant directory with public profile fields only
	g.GET("/restaurants", p.ListRestaurants)
	g.GET("/restaurants/:id", p.GetRestaurant)
	// Full slot grid of one restaurant for a date; non-bookable slots
	// are presented as FULL
	g.GET("/restaurants/:id/availability", p.GetRestaurantAvailability)
	// Open tables in the next 24 hours, six restaurants per page
	g.GET("/discover/tonight", p.Tonight)
	// Everything open on one day
	g.GET("/discover/available-today", p.AvailableToday)
	// Day-by-day overview of the coming week
	g.GET("/discover/week", p.Week)
}
