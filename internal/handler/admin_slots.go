package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/service"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// AdminSlotHandler serves the staff slot-management API. Every route is
// scoped to the restaurant named in the staff member's token.
type AdminSlotHandler struct {
	SlotAdmin *service.SlotAdmin
}

// NewAdminSlotHandler constructs an AdminSlotHandler.
func NewAdminSlotHandler(slotAdmin *service.SlotAdmin) *AdminSlotHandler {
	if slotAdmin == nil {
		panic("nil dependency passed to NewAdminSlotHandler")
	}
	return &AdminSlotHandler{SlotAdmin: slotAdmin}
}

// slotResponse is one slot as shown to staff, status unmasked.
type slotResponse struct {
	ID          uint64 `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DisplayTime string `json:"display_time"`
	PartySize   int    `json:"party_size"`
	Status      string `json:"status"`
}

func toSlotResponse(s *model.TimeSlot) slotResponse {
	return slotResponse{
		ID:          s.ID,
		Date:        s.Date,
		Time:        s.Time,
		DisplayTime: timeutil.DisplayClock(s.Time),
		PartySize:   s.PartySize,
		Status:      string(s.Status),
	}
}

// CreateSlot handles POST /v1/admin/slots, adding a single bookable
// slot. Creating a tuple that already exists answers 200 with the
// existing slot instead of 201; neither call changes slot status.
func (h *AdminSlotHandler) CreateSlot(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	var body struct {
		Date      string `json:"date" validate:"required"`
		Time      string `json:"time" validate:"required"`
		PartySize int    `json:"party_size" validate:"required,min=1,max=20"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	slot, created, err := h.SlotAdmin.CreateSlot(c.Request().Context(), restaurantID, body.Date, body.Time, body.PartySize)
	if err != nil {
		return writeDomainError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toSlotResponse(slot))
}

// BulkGenerate handles POST /v1/admin/slots/bulk. A time range is
// expanded at a fixed interval and crossed with the given party sizes;
// existing tuples are skipped. Responds with how many slots were
// actually created.
func (h *AdminSlotHandler) BulkGenerate(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	var body struct {
		Date            string `json:"date" validate:"required"`
		StartTime       string `json:"start_time" validate:"required"`
		EndTime         string `json:"end_time" validate:"required"`
		IntervalMinutes int    `json:"interval_minutes" validate:"required,min=5,max=240"`
		PartySizes      []int  `json:"party_sizes" validate:"required,min=1,dive,min=1,max=20"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	created, err := h.SlotAdmin.Generate(c.Request().Context(), restaurantID, service.GenerateInput{
		Date:            body.Date,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		IntervalMinutes: body.IntervalMinutes,
		PartySizes:      body.PartySizes,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": created})
}

// ListSlots handles GET /v1/admin/slots?date=YYYY-MM-DD, returning
// every slot of the restaurant on that date across all party sizes.
func (h *AdminSlotHandler) ListSlots(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}
	slots, err := h.SlotAdmin.ListSlots(c.Request().Context(), restaurantID, date)
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateSlot handles PATCH /v1/admin/slots/:id, force-setting a slot's
// status. Reopening a slot that still carries an active reservation
// answers 409.
func (h *AdminSlotHandler) UpdateSlot(c echo.Context) error {
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
	slot, err := h.SlotAdmin.SetSlotStatus(c.Request().Context(), restaurantID, id, body.Status)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toSlotResponse(slot))
}
