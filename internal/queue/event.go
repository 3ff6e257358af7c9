// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a restaurant accepts a
// reservation. It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID    uint64 `json:"reservation_id"`
	ConfirmationCode string `json:"confirmation_code"`
	UserID           uint64 `json:"user_id"`
	RestaurantID     uint64 `json:"restaurant_id"`
	RestaurantName   string `json:"restaurant_name"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	PartySize        int    `json:"party_size"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a reservation leaves the
// active set, whether the diner withdrew it or the restaurant declined.
type ReservationCancelledEvent struct {
	ReservationID    uint64 `json:"reservation_id"`
	ConfirmationCode string `json:"confirmation_code"`
	UserID           uint64 `json:"user_id"`
	RestaurantID     uint64 `json:"restaurant_id"`
	RestaurantName   string `json:"restaurant_name"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	PartySize        int    `json:"party_size"`
	CancelledBy      string `json:"cancelled_by"`
	CancelledAt      string `json:"cancelled_at"`
}
