package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// maxGeneratedSlots caps one bulk-generation request so a bad interval
// cannot flood the slots table.
const maxGeneratedSlots = 500

// SlotAdmin covers the staff side of slot management: creating the
// bookable inventory and correcting individual slots.
type SlotAdmin struct {
	db           *sql.DB
	slots        *repository.SlotRepo
	reservations *repository.ReservationRepo
}

// NewSlotAdmin constructs the slot administration service.
func NewSlotAdmin(db *sql.DB, slots *repository.SlotRepo, reservations *repository.ReservationRepo) *SlotAdmin {
	return &SlotAdmin{db: db, slots: slots, reservations: reservations}
}

// CreateSlot adds a single bookable slot. It is idempotent: creating a
// tuple that already exists returns the existing slot with created set
// to false and never alters its status.
func (s *SlotAdmin) CreateSlot(ctx context.Context, restaurantID uint64, date, rawTime string, partySize int) (*model.TimeSlot, bool, error) {
	if partySize <= 0 {
		return nil, false, fmt.Errorf("%w: party size must be positive", ErrInvalidInput)
	}
	if !timeutil.ValidDate(date) {
		return nil, false, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}
	clock, err := timeutil.NormalizeClock(rawTime)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	slot, created, err := s.slots.FindOrCreateTx(ctx, tx, restaurantID, date, clock, partySize)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return slot, created, nil
}

// GenerateInput describes one bulk-generation request: a time range
// expanded at a fixed interval, crossed with a set of party sizes.
type GenerateInput struct {
	Date            string
	StartTime       string
	EndTime         string
	IntervalMinutes int
	PartySizes      []int
}

// Generate expands the request into concrete (time, party size) tuples
// and inserts them in bulk. Existing tuples are skipped, never
// modified, so the operation is safe to repeat. It returns how many
// slots were actually created. Requests that would expand past the
// generation cap are rejected.
func (s *SlotAdmin) Generate(ctx context.Context, restaurantID uint64, in GenerateInput) (int64, error) {
	if !timeutil.ValidDate(in.Date) {
		return 0, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, in.Date)
	}
	start, err := timeutil.NormalizeClock(in.StartTime)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	end, err := timeutil.NormalizeClock(in.EndTime)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.IntervalMinutes <= 0 {
		return 0, fmt.Errorf("%w: interval must be positive", ErrInvalidInput)
	}
	if len(in.PartySizes) == 0 {
		return 0, fmt.Errorf("%w: at least one party size is required", ErrInvalidInput)
	}
	for _, p := range in.PartySizes {
		if p <= 0 {
			return 0, fmt.Errorf("%w: party size must be positive", ErrInvalidInput)
		}
	}
	times, err := timeutil.ExpandInterval(start, end, in.IntervalMinutes)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(times) == 0 {
		return 0, fmt.Errorf("%w: time range %s-%s yields no slots", ErrInvalidInput, start, end)
	}
	if len(times)*len(in.PartySizes) > maxGeneratedSlots {
		return 0, fmt.Errorf("%w: request expands to %d slots, cap is %d",
			ErrInvalidInput, len(times)*len(in.PartySizes), maxGeneratedSlots)
	}
	var created int64
	for _, partySize := range in.PartySizes {
		n, err := s.slots.CreateBulk(ctx, restaurantID, in.Date, times, partySize)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}

// ListSlots returns every slot of the staff member's restaurant on the
// given date, all party sizes, statuses unmasked.
func (s *SlotAdmin) ListSlots(ctx context.Context, restaurantID uint64, date string) ([]*model.TimeSlot, error) {
	if !timeutil.ValidDate(date) {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}
	return s.slots.ListByRestaurantDate(ctx, restaurantID, date, 0)
}

// SetSlotStatus force-sets a slot's persisted status. The slot must
// belong to the caller's restaurant. Reopening a slot that still has an
// active reservation is refused with ErrSlotUnavailable; staff must
// resolve the reservation first.
func (s *SlotAdmin) SetSlotStatus(ctx context.Context, restaurantID, slotID uint64, rawStatus string) (*model.TimeSlot, error) {
	to, err := model.ParseSlotStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	slot, err := s.slots.GetForUpdateTx(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.RestaurantID != restaurantID {
		return nil, repository.ErrForbidden
	}
	if to == model.SlotAvailable {
		active, err := s.reservations.HasActiveOnSlotTx(ctx, tx, slotID, 0)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, repository.ErrSlotUnavailable
		}
	}
	if err := s.slots.SetStatusTx(ctx, tx, slotID, to); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	slot.Status = to
	return slot, nil
}
