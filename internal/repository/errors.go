// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current subject is not
// authorized to act on a resource owned by someone else, while
// ErrAlreadyProcessed signals that a staff decision raced with another
// transition and found the reservation no longer in its expected state.
package repository

import "errors"

// ErrRestaurantNotFound is returned when a restaurant cannot be found.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrSlotNotFound is returned when a time slot cannot be found.
var ErrSlotNotFound = errors.New("slot not found")

// ErrReservationNotFound is returned when a reservation cannot be found
// for the requesting subject.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyProcessed is returned when a conditional status update
// affects no rows because the reservation already left its expected
// precondition state (e.g. a second concurrent accept). Handlers
// should translate this into an HTTP 409 response.
var ErrAlreadyProcessed = errors.New("reservation already processed")

// ErrSlotUnavailable is returned when a booking attempt finds the slot
// claimed by another active reservation. Handlers should translate
// this into an HTTP 409 response.
var ErrSlotUnavailable = errors.New("slot is not available")

// ErrHoldExpired is returned when a diner confirms a hold whose
// deadline has already passed. The hold is cancelled and its slot
// released as part of the same transaction.
var ErrHoldExpired = errors.New("hold has expired")
