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

// DinerHandler serves the authenticated diner API: placing, confirming,
// cancelling and reviewing reservations. All methods assume JWT
// authentication and role validation have already run; they return 401
// only when the user ID cannot be extracted from the context.
type DinerHandler struct {
	Lifecycle       *service.Lifecycle
	ReservationRepo *repository.ReservationRepo
}

// NewDinerHandler constructs a DinerHandler. All dependencies must be
// non-nil.
func NewDinerHandler(lifecycle *service.Lifecycle, reservationRepo *repository.ReservationRepo) *DinerHandler {
	if lifecycle == nil || reservationRepo == nil {
		panic("nil dependency passed to NewDinerHandler")
	}
	return &DinerHandler{Lifecycle: lifecycle, ReservationRepo: reservationRepo}
}

// reservationResponse is the payload returned from the write endpoints.
type reservationResponse struct {
	ID               uint64     `json:"id"`
	RestaurantID     uint64     `json:"restaurant_id"`
	SlotID           uint64     `json:"slot_id"`
	PartySize        int        `json:"party_size"`
	Status           string     `json:"status"`
	ConfirmationCode string     `json:"confirmation_code"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
}

func toReservationResponse(m *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:               m.ID,
		RestaurantID:     m.RestaurantID,
		SlotID:           m.SlotID,
		PartySize:        m.PartySize,
		Status:           string(m.Status),
		ConfirmationCode: m.ConfirmationCode,
		ExpiresAt:        m.ExpiresAt,
		ConfirmedAt:      m.ConfirmedAt,
	}
}

// Create handles POST /v1/reservations. The body names the restaurant,
// date, time and party size; time accepts both "19:30" and "7:30 PM".
// With "hold": true the reservation starts as a countdown hold the
// diner must confirm. Responds 201 with the new reservation, or 409
// when the slot is already claimed.
func (h *DinerHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RestaurantID uint64 `json:"restaurant_id" validate:"required"`
		Date         string `json:"date" validate:"required"`
		Time         string `json:"time" validate:"required"`
		PartySize    int    `json:"party_size" validate:"required,min=1,max=20"`
		Hold         bool   `json:"hold"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Lifecycle.Create(c.Request().Context(), userID, service.CreateInput{
		RestaurantID: body.RestaurantID,
		Date:         body.Date,
		Time:         body.Time,
		PartySize:    body.PartySize,
		Hold:         body.Hold,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(res))
}

// ConfirmHold handles POST /v1/reservations/:id/confirm, promoting a
// hold to a submitted request. An expired hold answers 409 and the slot
// is released as a side effect.
func (h *DinerHandler) ConfirmHold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Lifecycle.ConfirmHold(c.Request().Context(), userID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// Cancel handles POST /v1/reservations/:id/cancel. The diner may
// withdraw while the reservation is HELD, PENDING or CONFIRMED; the
// slot reopens unless another active reservation still claims it.
func (h *DinerHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Lifecycle.Cancel(c.Request().Context(), userID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	h.publishCancelled(res, "diner")
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// GetOne handles GET /v1/reservations/:id. Ownership is enforced in the
// query, so a foreign reservation is indistinguishable from a missing
// one.
func (h *DinerHandler) GetOne(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	detail, err := h.ReservationRepo.GetDetailForUser(c.Request().Context(), id, userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	detail.DisplayTime = timeutil.DisplayClock(detail.Time)
	return c.JSON(http.StatusOK, detail)
}

// ListMine handles GET /v1/my-reservations, newest first.
func (h *DinerHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.ReservationRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for _, d := range items {
		d.DisplayTime = timeutil.DisplayClock(d.Time)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishCancelled emits a cancellation event without blocking the
// request. The broker may be down; the booking outcome stands either
// way.
func (h *DinerHandler) publishCancelled(res *model.Reservation, by string) {
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
			CancelledBy:      by,
			CancelledAt:      time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			log.Printf("reservation %d: cancel event publish failed: %v", res.ID, err)
		}
	}()
}
