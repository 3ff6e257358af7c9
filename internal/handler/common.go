// Package handler exposes HTTP handlers for the public discovery API,
// the diner booking API and the staff administration API. Handlers
// bind and validate request payloads, delegate to services and
// repositories, and translate domain errors into HTTP status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/middleware"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/service"
)

// getUserID extracts the authenticated user's ID from context.
func getUserID(c echo.Context) (uint64, error) {
	if id := middleware.CurrentUserID(c); id != 0 {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// getRestaurantID extracts the staff caller's restaurant from context.
func getRestaurantID(c echo.Context) (uint64, error) {
	if id := middleware.CurrentRestaurantID(c); id != 0 {
		return id, nil
	}
	return 0, errors.New("no restaurant_id in context")
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter, returning def
// when absent and -1 when malformed.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// writeDomainError maps service and repository errors onto HTTP
// responses. Precondition failures on the state machine surface as 409
// Conflict so clients can tell "someone beat you to it" apart from
// "this does not exist".
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
	case errors.Is(err, repository.ErrSlotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyProcessed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already processed"})
	case errors.Is(err, repository.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is not available"})
	case errors.Is(err, repository.ErrHoldExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hold has expired"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
