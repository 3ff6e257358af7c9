package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strconv"  // numeric claim conversion
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the identity provider and injects typed claims into the request
// context. The provided secret must match the one the issuer signs with.
// Handlers behind this middleware read the caller via `c.Get("user_id")`
// (uint64), `c.Get("role")` (string) and, for staff tokens,
// `c.Get("restaurant_id")` (uint64).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Read the Authorization header. A valid header starts with
			// "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret. The callback checks the
			// algorithm so a token signed with a different method is
			// rejected rather than verified against the wrong key type.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// The subject is the user ID. Issuers encode it either as a
			// decimal string or a JSON number.
			userID := claimUint64(claims, "sub")
			if userID == 0 {
				userID = claimUint64(claims, "user_id")
			}
			if userID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", userID)
			c.Set("role", role)
			// Staff tokens carry the restaurant they administer. Diner
			// tokens omit the claim; the stored zero means "none".
			c.Set("restaurant_id", claimUint64(claims, "restaurant_id"))
			return next(c)
		}
	}
}

// claimUint64 reads a claim that may arrive as a JSON number or a
// decimal string. Missing or malformed claims yield zero.
func claimUint64(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// CurrentUserID returns the authenticated user's ID from context, or
// zero when the request is unauthenticated.
func CurrentUserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// CurrentRestaurantID returns the restaurant a staff token administers,
// or zero for diner and anonymous requests.
func CurrentRestaurantID(c echo.Context) uint64 {
	if v, ok := c.Get("restaurant_id").(uint64); ok {
		return v
	}
	return 0
}
