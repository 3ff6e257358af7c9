package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/queue"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/service"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// AdminBookingHandler serves the staff booking-management API: the
// request inbox plus accept, reject and direct status updates. Every
// route is scoped to the restaurant named in the staff member's token.
type AdminBookingHandler struct {
	Lifecycle       *service.Lifecycle
	ReservationRepo *repository.ReservationRepo
}

// NewAdminBookingHandler constructs an AdminBookingHandler.
func NewAdminBookingHandler(lifecycle *service.Lifecycle, reservationRepo *repository.ReservationRepo) *AdminBookingHandler {
	if lifecycle == nil || reservationRepo == nil {
		panic("nil dependency passed to NewAdminBookingHandler")
	}
	return &AdminBookingHandler{Lifecycle: lifecycle, ReservationRepo: reservationRepo}
}

// ListBookings handles GET /v1/admin/bookings. Optional query
// parameters date and status narrow the result; status must be one of
// the reservation states.
func (h *AdminBookingHandler) ListBookings(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	date := c.QueryParam("date")
	if date != "" && !timeutil.ValidDate(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	var status model.ReservationStatus
	if raw := c.QueryParam("status"); raw != "" {
		status, err = model.ParseReservationStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	items, err := h.ReservationRepo.ListByRestaurant(c.Request().Context(), restaurantID, date, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for _, d := range items {
		d.DisplayTime = timeutil.DisplayClock(d.Time)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Accept handles POST /v1/admin/bookings/:id/accept, confirming a
// pending reservation and closing its slot. A reservation no longer
// pending answers 409.
func (h *AdminBookingHandler) Accept(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Lifecycle.Accept(c.Request().Context(), restaurantID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	h.publishConfirmed(res)
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// Reject handles POST /v1/admin/bookings/:id/reject, declining a
// pending reservation and reopening its slot.
func (h *AdminBookingHandler) Reject(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Lifecycle.Reject(c.Request().Context(), restaurantID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	h.publishCancelled(res)
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// UpdateBooking handles PATCH /v1/admin/bookings/:id, setting any
// reservation state directly. Used for front-of-house bookkeeping:
// seating an arrived party, completing a finished one, marking a
// no-show. The slot moves in lockstep with the new state.
func (h *AdminBookingHandler) UpdateBooking(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Lifecycle.SetStatus(c.Request().Context(), restaurantID, id, body.Status)
	if err != nil {
		return writeDomainError(c, err)
	}
	switch res.Status {
	case model.ReservationConfirmed:
		h.publishConfirmed(res)
	case model.ReservationCancelled:
		h.publishCancelled(res)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h *AdminBookingHandler) publishConfirmed(res *model.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		detail, err := h.ReservationRepo.GetDetailForUser(ctx, res.ID, res.UserID)
		if err != nil {
			log.Printf("reservation %d: confirm event skipped, detail lookup failed: %v", res.ID, err)
			return
		}
		confirmedAt := time.Now().UTC().Format(time.RFC3339)
		if res.ConfirmedAt != nil {
			confirmedAt = res.ConfirmedAt.UTC().Format(time.RFC3339)
		}
		err = queue.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
			ReservationID:    res.ID,
			ConfirmationCode: res.ConfirmationCode,
			UserID:           res.UserID,
			RestaurantID:     res.RestaurantID,
			RestaurantName:   detail.RestaurantName,
			Date:             detail.Date,
			Time:             detail.Time,
			PartySize:        res.PartySize,
			ConfirmedAt:      confirmedAt,
		})
		if err != nil {
			log.Printf("reservation %d: confirm event publish failed: %v", res.ID, err)
		}
	}()
}

func (h *AdminBookingHandler) publishCancelled(res *model.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		detail, err := h.ReservationRepo.GetDetailForUser(ctx, res.ID, res.UserID)
		if err != nil {
			log.Printf("reservation %d: cancel event skipped, detail lookup failed: %v", res.ID, err)
			return
		}
		err = queue.PublishReservationCancelled(ctx, queue.ReservationCancelledEvent{
			ReservationID:    res.ID,
			ConfirmationCode: res.ConfirmationCode,
			UserID:           res.UserID,
			RestaurantID:     res.RestaurantID,
			RestaurantName:   detail.RestaurantName,
			Date:             detail.Date,
			Time:             detail.Time,
			PartySize:        res.PartySize,
			CancelledBy:      "staff",
			CancelledAt:      time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("reservation %d: cancel event publish failed: %v", res.ID, err)
		}
	}()
}
