package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Role values carried in the JWT "role" claim.
const (
	RoleDiner = "DINER"
	RoleStaff = "STAFF"
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller has one of the specified roles. If the caller's
// role is not in the allowed set the request is aborted with a 403
// Forbidden response. It assumes JWTAuth has already stored the role
// in the context under the key "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireRestaurant ensures a staff token actually names a restaurant.
// Tokens provisioned before a staff member is attached to a venue pass
// the role check but cannot act on any data.
func RequireRestaurant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentRestaurantID(c) == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
			}
			return next(c)
		}
	}
}
