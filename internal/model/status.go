package model

import (
	"fmt"
	"strings"
)

// SlotStatus is the persisted availability state of a time slot.  Only
// AVAILABLE, REQUESTED and FULL are ever stored; HELD and CUTOFF exist
// solely as read-side projection values returned by availability queries.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotRequested SlotStatus = "REQUESTED"
	SlotFull      SlotStatus = "FULL"

	// Projection-only values.  CUTOFF is reserved for a time-based cutoff
	// rule that is not computed anywhere yet; HELD surfaces a slot claimed
	// by an unconfirmed hold.
	SlotHeld   SlotStatus = "HELD"
	SlotCutoff SlotStatus = "CUTOFF"
)

// ParseSlotStatus normalizes raw input (any case) to a persisted slot
// status.  Projection-only values are rejected because they must never
// be written to the store.
func ParseSlotStatus(raw string) (SlotStatus, error) {
	switch s := SlotStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case SlotAvailable, SlotRequested, SlotFull:
		return s, nil
	default:
		return "", fmt.Errorf("invalid slot status %q", raw)
	}
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationHeld      ReservationStatus = "HELD"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationSeated    ReservationStatus = "SEATED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationNoShow    ReservationStatus = "NO_SHOW"
)

// ParseReservationStatus normalizes raw input (any case) to a canonical
// reservation status.  Unknown values are rejected so that free-form
// strings never reach the store.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch s := ReservationStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ReservationPending, ReservationHeld, ReservationConfirmed,
		ReservationSeated, ReservationCompleted, ReservationCancelled,
		ReservationNoShow:
		return s, nil
	default:
		return "", fmt.Errorf("invalid reservation status %q", raw)
	}
}

// IsActive reports whether a reservation in this state still claims its
// slot.  While any active reservation exists the slot must not be
// AVAILABLE.
func (s ReservationStatus) IsActive() bool {
	switch s {
	case ReservationPending, ReservationHeld, ReservationConfirmed, ReservationSeated:
		return true
	}
	return false
}

// IsTerminal reports whether the state permits no further transitions.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}
