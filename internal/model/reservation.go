package model

import "time"

// Reservation records a diner's claim on a time slot.  A reservation
// always references a slot belonging to the same restaurant, and every
// status change is applied together with the matching slot status change
// in one transaction.  Reservations are never physically deleted.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – diner who placed the booking.
//  RestaurantID     – restaurant being booked (matches the slot's).
//  SlotID           – the claimed time slot.
//  PartySize        – covers requested; copied from the slot tuple.
//  Status           – lifecycle state (PENDING, HELD, CONFIRMED, SEATED,
//                     COMPLETED, CANCELLED, NO_SHOW).
//  ConfirmationCode – opaque code returned to the diner for reference.
//  ExpiresAt        – hold deadline; set only while Status is HELD.
//  CreatedAt        – creation timestamp.
//  ConfirmedAt      – when staff confirmed the booking (nullable).
//  UpdatedAt        – last update timestamp.
type Reservation struct {
	ID               uint64            // reservations.id
	UserID           uint64            // reservations.user_id
	RestaurantID     uint64            // reservations.restaurant_id
	SlotID           uint64            // reservations.slot_id
	PartySize        int               // reservations.party_size
	Status           ReservationStatus // reservations.status
	ConfirmationCode string            // reservations.confirmation_code
	ExpiresAt        *time.Time        // reservations.expires_at (nullable)
	CreatedAt        time.Time         // reservations.created_at
	ConfirmedAt      *time.Time        // reservations.confirmed_at (nullable)
	UpdatedAt        time.Time         // reservations.updated_at
}
