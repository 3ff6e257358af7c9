// Package service hosts the business logic that sits between HTTP
// handlers and repositories. The reservation lifecycle lives here so
// that every transition which touches both a reservation and its slot
// is applied through one code path, inside one transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// ErrInvalidInput wraps validation failures detected by services
// (malformed dates, unparseable times, non-positive party sizes).
// Handlers translate it into an HTTP 400 response.
var ErrInvalidInput = errors.New("invalid input")

// Lifecycle implements the reservation state machine. Each transition
// validates its precondition with a conditional update (compare-and-swap
// on status) and applies the paired slot status change in the same
// transaction, so the two rows can never drift apart. Expired holds on
// a slot are swept at the start of any transaction that touches it.
type Lifecycle struct {
	db           *sql.DB
	restaurants  *repository.RestaurantRepo
	slots        *repository.SlotRepo
	reservations *repository.ReservationRepo
	holdTTL      time.Duration
	now          func() time.Time
}

// NewLifecycle constructs the lifecycle service. holdTTL bounds how
// long a HELD reservation keeps its slot before the reaper cancels it.
func NewLifecycle(db *sql.DB, restaurants *repository.RestaurantRepo, slots *repository.SlotRepo, reservations *repository.ReservationRepo, holdTTL time.Duration) *Lifecycle {
	if db == nil || restaurants == nil || slots == nil || reservations == nil {
		panic("nil dependency passed to NewLifecycle")
	}
	if holdTTL <= 0 {
		holdTTL = 10 * time.Minute
	}
	return &Lifecycle{
		db:           db,
		restaurants:  restaurants,
		slots:        slots,
		reservations: reservations,
		holdTTL:      holdTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Tests use it to pin "now".
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	l.now = now
	return l
}

// CreateInput carries a diner's booking request. Time accepts either
// 24-hour "HH:mm" or 12-hour "h:mm AM/PM" form; it is normalized before
// the slot tuple is resolved. When Hold is set the reservation is
// created as a countdown hold instead of a submitted request.
type CreateInput struct {
	RestaurantID uint64
	Date         string
	Time         string
	PartySize    int
	Hold         bool
}

// Create places a new reservation for the diner. The slot for the
// (restaurant, date, time, partySize) tuple is resolved via an atomic
// find-or-create, expired holds on it are swept, and the slot is moved
// AVAILABLE -> REQUESTED by compare-and-swap so concurrent first
// bookings of the same tuple produce exactly one active reservation.
// The losing call fails with ErrSlotUnavailable.
func (l *Lifecycle) Create(ctx context.Context, userID uint64, in CreateInput) (*model.Reservation, error) {
	if in.PartySize <= 0 {
		return nil, fmt.Errorf("%w: party size must be positive", ErrInvalidInput)
	}
	if !timeutil.ValidDate(in.Date) {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, in.Date)
	}
	clock, err := timeutil.NormalizeClock(in.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	// Restaurant existence is a business-rule check and happens before
	// the transaction is entered.
	if _, err := l.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, created, err := l.slots.FindOrCreateTx(ctx, tx, in.RestaurantID, in.Date, clock, in.PartySize)
	if err != nil {
		return nil, err
	}
	if !created {
		// Sweep expired holds so an abandoned hold does not block the
		// tuple forever.
		swept, err := l.reservations.ExpireHeldBySlotTx(ctx, tx, slot.ID, l.now())
		if err != nil {
			return nil, err
		}
		if swept > 0 {
			if _, err := l.slots.ReleaseTx(ctx, tx, slot.ID); err != nil {
				return nil, err
			}
		}
	}
	won, err := l.slots.UpdateStatusCASTx(ctx, tx, slot.ID, model.SlotAvailable, model.SlotRequested)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, repository.ErrSlotUnavailable
	}

	res := &model.Reservation{
		UserID:           userID,
		RestaurantID:     in.RestaurantID,
		SlotID:           slot.ID,
		PartySize:        in.PartySize,
		Status:           model.ReservationPending,
		ConfirmationCode: uuid.NewString(),
	}
	if in.Hold {
		res.Status = model.ReservationHeld
		deadline := l.now().Add(l.holdTTL)
		res.ExpiresAt = &deadline
	}
	if err := l.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// ConfirmHold promotes a diner's HELD reservation to PENDING, submitting
// it to the restaurant. The slot stays REQUESTED. A hold whose deadline
// has passed is cancelled (and its slot released) and the call fails
// with ErrHoldExpired; a reservation in any other state fails with
// ErrAlreadyProcessed.
func (l *Lifecycle) ConfirmHold(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := l.reservations.GetForUserTx(ctx, tx, reservationID, userID)
	if err != nil {
		return nil, err
	}
	if res.Status != model.ReservationHeld {
		return nil, repository.ErrAlreadyProcessed
	}
	now := l.now()
	if res.ExpiresAt != nil && !now.Before(*res.ExpiresAt) {
		// The deadline has passed: cancel the hold and free the slot as
		// part of this transaction, then report the expiry.
		if _, err := l.reservations.UpdateStatusCASTx(ctx, tx, res.ID,
			[]model.ReservationStatus{model.ReservationHeld}, model.ReservationCancelled, nil); err != nil {
			return nil, err
		}
		if _, err := l.slots.ReleaseTx(ctx, tx, res.SlotID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return nil, repository.ErrHoldExpired
	}
	won, err := l.reservations.UpdateStatusCASTx(ctx, tx, res.ID,
		[]model.ReservationStatus{model.ReservationHeld}, model.ReservationPending, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, repository.ErrAlreadyProcessed
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationPending
	res.ExpiresAt = nil
	return res, nil
}

// Accept records a staff decision to confirm a PENDING reservation:
// the reservation becomes CONFIRMED with confirmed_at set and the slot
// becomes FULL. A second concurrent accept (or an accept after reject)
// loses the compare-and-swap and fails with ErrAlreadyProcessed.
func (l *Lifecycle) Accept(ctx context.Context, restaurantID, reservationID uint64) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := l.reservations.GetForRestaurantTx(ctx, tx, reservationID, restaurantID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	won, err := l.reservations.UpdateStatusCASTx(ctx, tx, res.ID,
		[]model.ReservationStatus{model.ReservationPending}, model.ReservationConfirmed, &now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, repository.ErrAlreadyProcessed
	}
	if err := l.slots.SetStatusTx(ctx, tx, res.SlotID, model.SlotFull); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationConfirmed
	res.ConfirmedAt = &now
	res.ExpiresAt = nil
	return res, nil
}

// Reject records a staff decision to decline a PENDING reservation: the
// reservation becomes CANCELLED and the slot returns to AVAILABLE
// unless another active reservation still claims it.
func (l *Lifecycle) Reject(ctx context.Context, restaurantID, reservationID uint64) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := l.reservations.GetForRestaurantTx(ctx, tx, reservationID, restaurantID)
	if err != nil {
		return nil, err
	}
	won, err := l.reservations.UpdateStatusCASTx(ctx, tx, res.ID,
		[]model.ReservationStatus{model.ReservationPending}, model.ReservationCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, repository.ErrAlreadyProcessed
	}
	if _, err := l.slots.ReleaseTx(ctx, tx, res.SlotID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationCancelled
	res.ExpiresAt = nil
	return res, nil
}

// Cancel lets a diner withdraw their own reservation while it is
// PENDING, HELD or CONFIRMED. The reservation becomes CANCELLED and
// the slot returns to AVAILABLE unless still claimed elsewhere.
func (l *Lifecycle) Cancel(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := l.reservations.GetForUserTx(ctx, tx, reservationID, userID)
	if err != nil {
		return nil, err
	}
	won, err := l.reservations.UpdateStatusCASTx(ctx, tx, res.ID,
		[]model.ReservationStatus{
			model.ReservationPending,
			model.ReservationHeld,
			model.ReservationConfirmed,
		}, model.ReservationCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, repository.ErrAlreadyProcessed
	}
	if _, err := l.slots.ReleaseTx(ctx, tx, res.SlotID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = model.ReservationCancelled
	res.ExpiresAt = nil
	return res, nil
}

// SetStatus applies a staff-supplied status to a reservation without a
// precondition (the generic booking update). The raw status is
// upper-cased and validated against the closed enumeration. The slot
// moves in lockstep: FULL when the new status is CONFIRMED, released
// when it is CANCELLED, unchanged otherwise. confirmed_at is stamped on
// CONFIRMED.
func (l *Lifecycle) SetStatus(ctx context.Context, restaurantID, reservationID uint64, rawStatus string) (*model.Reservation, error) {
	to, err := model.ParseReservationStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := l.reservations.GetForRestaurantTx(ctx, tx, reservationID, restaurantID)
	if err != nil {
		return nil, err
	}
	var confirmedAt *time.Time
	if to == model.ReservationConfirmed {
		now := l.now()
		confirmedAt = &now
	}
	if err := l.reservations.SetStatusTx(ctx, tx, res.ID, to, confirmedAt); err != nil {
		return nil, err
	}
	switch to {
	case model.ReservationConfirmed:
		if err := l.slots.SetStatusTx(ctx, tx, res.SlotID, model.SlotFull); err != nil {
			return nil, err
		}
	case model.ReservationCancelled:
		if _, err := l.slots.ReleaseTx(ctx, tx, res.SlotID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.Status = to
	res.ConfirmedAt = confirmedAt
	res.ExpiresAt = nil
	return res, nil
}
