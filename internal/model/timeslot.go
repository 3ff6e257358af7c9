package model

import "time"

// TimeSlot represents bookable capacity for one combination of
// restaurant, calendar date, time of day and party size.  The tuple
// (RestaurantID, Date, Time, PartySize) is unique in the store and acts
// as the idempotency key for slot allocation.  Slots are created either
// proactively by the admin bulk generator or lazily on the first booking
// of a never-before-seen tuple, and are never deleted in normal
// operation: cancellation and rejection reset the status to AVAILABLE.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – owning restaurant.
//  Date         – calendar date as "YYYY-MM-DD" (no timezone).
//  Time         – 24-hour "HH:mm" time of day.
//  PartySize    – number of covers the table seats.
//  Status       – persisted status (AVAILABLE, REQUESTED, FULL).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type TimeSlot struct {
	ID           uint64     // slots.id
	RestaurantID uint64     // slots.restaurant_id
	Date         string     // slots.date
	Time         string     // slots.time
	PartySize    int        // slots.party_size
	Status       SlotStatus // slots.status
	CreatedAt    time.Time  // slots.created_at
	UpdatedAt    time.Time  // slots.updated_at
}
