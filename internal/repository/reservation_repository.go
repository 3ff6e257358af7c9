package repository

// This file provides persistence for reservations. Status transitions
// are conditional updates: the WHERE clause re-checks the expected
// precondition status so a transition that raced with another one
// affects zero rows instead of double-applying. All timestamps are
// stored in UTC.

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aydinmert/tablebook/internal/model"
)

// ReservationRepo provides CRUD operations for reservations. All
// mutating methods run inside a caller-owned transaction so the paired
// slot write commits or rolls back together with the reservation write.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, user_id, restaurant_id, slot_id, party_size, status,
	       confirmation_code, expires_at, created_at, confirmed_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var m model.Reservation
	var expiresAt, confirmedAt sql.NullTime
	err := row.Scan(&m.ID, &m.UserID, &m.RestaurantID, &m.SlotID, &m.PartySize,
		&m.Status, &m.ConfirmationCode, &expiresAt, &m.CreatedAt, &confirmedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		m.ExpiresAt = &t
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		m.ConfirmedAt = &t
	}
	return &m, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction. It populates the generated ID on the provided record and
// queries the full row back so defaults and timestamps are filled in.
// The caller must commit or roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, restaurant_id, slot_id, party_size, status, confirmation_code, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var expiresAt any
	if m.ExpiresAt != nil {
		expiresAt = m.ExpiresAt.UTC()
	}
	res, err := tx.ExecContext(ctx, q,
		m.UserID, m.RestaurantID, m.SlotID, m.PartySize, m.Status, m.ConfirmationCode, expiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	got, err := scanReservation(tx.QueryRowContext(ctx, sel, m.ID))
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// GetForUserTx loads a reservation inside the transaction with a row
// lock, enforcing that it belongs to the given user. It returns
// ErrReservationNotFound when no row exists and ErrForbidden when the
// reservation belongs to someone else.
func (r *ReservationRepo) GetForUserTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	m, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrForbidden
	}
	return m, nil
}

// GetForRestaurantTx is the staff-side counterpart of GetForUserTx: it
// locks the row and enforces that the reservation belongs to the given
// restaurant.
func (r *ReservationRepo) GetForRestaurantTx(ctx context.Context, tx *sql.Tx, id, restaurantID uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? FOR UPDATE`
	m, err := scanReservation(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if m.RestaurantID != restaurantID {
		return nil, ErrForbidden
	}
	return m, nil
}

// UpdateStatusCASTx transitions a reservation from one of the expected
// statuses to a new status. The WHERE clause re-checks the expected
// status so a lost race affects zero rows; in that case the method
// reports false and the caller surfaces ErrAlreadyProcessed. When
// confirmedAt is non-nil the confirmed_at column is set in the same
// statement, and the expiry deadline is always cleared because only
// HELD rows carry one.
func (r *ReservationRepo) UpdateStatusCASTx(ctx context.Context, tx *sql.Tx, id uint64, from []model.ReservationStatus, to model.ReservationStatus, confirmedAt *time.Time) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("no precondition status supplied")
	}
	q := `UPDATE reservations SET status = ?, expires_at = NULL`
	args := []any{to}
	if confirmedAt != nil {
		q += `, confirmed_at = ?`
		args = append(args, confirmedAt.UTC())
	}
	q += ` WHERE id = ? AND status IN (?`
	args = append(args, id, from[0])
	for _, s := range from[1:] {
		q += `, ?`
		args = append(args, s)
	}
	q += `)`
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetStatusTx writes a reservation status without a precondition. It
// backs the staff "generic status update" operation, which may assign
// any valid status. confirmed_at is set when the new status is
// CONFIRMED, and the hold deadline is cleared.
func (r *ReservationRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, to model.ReservationStatus, confirmedAt *time.Time) error {
	q := `UPDATE reservations SET status = ?, expires_at = NULL`
	args := []any{to}
	if confirmedAt != nil {
		q += `, confirmed_at = ?`
		args = append(args, confirmedAt.UTC())
	}
	q += ` WHERE id = ?`
	args = append(args, id)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ExpireHeldBySlotTx cancels every HELD reservation on the slot whose
// deadline has passed and reports how many were swept. Callers release
// the slot afterwards when the sweep cancelled something. This runs at
// the start of any transaction that touches the slot, mirroring an
// expire-on-write reaper.
func (r *ReservationRepo) ExpireHeldBySlotTx(ctx context.Context, tx *sql.Tx, slotID uint64, now time.Time) (int64, error) {
	const q = `UPDATE reservations SET status = ?, expires_at = NULL
	           WHERE slot_id = ? AND status = ? AND expires_at <= ?`
	res, err := tx.ExecContext(ctx, q, model.ReservationCancelled, slotID, model.ReservationHeld, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReservationDetail is the projection returned to diners: the
// reservation joined with its restaurant's display fields and the slot
// tuple it claims. DisplayTime carries the 12-hour rendering of the
// slot time.
type ReservationDetail struct {
	ID               uint64  `json:"id"`
	Status           string  `json:"status"`
	PartySize        int     `json:"party_size"`
	ConfirmationCode string  `json:"confirmation_code"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	DisplayTime      string  `json:"display_time"`
	RestaurantID     uint64  `json:"restaurant_id"`
	RestaurantName   string  `json:"restaurant_name"`
	RestaurantSlug   string  `json:"restaurant_slug"`
	Neighborhood     string  `json:"neighborhood"`
	ExpiresAt        *string `json:"expires_at,omitempty"`
	ConfirmedAt      *string `json:"confirmed_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

const detailColumns = `b.id, b.status, b.party_size, b.confirmation_code,
	       s.date, s.time,
	       r.id, r.name, r.slug, r.neighborhood,
	       b.expires_at, b.confirmed_at, b.created_at`

func scanDetail(row interface{ Scan(...any) error }) (*ReservationDetail, error) {
	var d ReservationDetail
	var expiresAt, confirmedAt sql.NullTime
	var createdAt time.Time
	err := row.Scan(&d.ID, &d.Status, &d.PartySize, &d.ConfirmationCode,
		&d.Date, &d.Time,
		&d.RestaurantID, &d.RestaurantName, &d.RestaurantSlug, &d.Neighborhood,
		&expiresAt, &confirmedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		iso := expiresAt.Time.UTC().Format(time.RFC3339)
		d.ExpiresAt = &iso
	}
	if confirmedAt.Valid {
		iso := confirmedAt.Time.UTC().Format(time.RFC3339)
		d.ConfirmedAt = &iso
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return &d, nil
}

// GetDetailForUser returns a single reservation detail for the given
// user. Ownership is enforced in the query, so a reservation belonging
// to someone else surfaces as ErrReservationNotFound rather than
// leaking its existence.
func (r *ReservationRepo) GetDetailForUser(ctx context.Context, id, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT ` + detailColumns + `
	           FROM reservations b
	           JOIN slots s ON s.id = b.slot_id
	           JOIN restaurants r ON r.id = b.restaurant_id
	           WHERE b.id = ? AND b.user_id = ?`
	d, err := scanDetail(r.db.QueryRowContext(ctx, q, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByUser returns all reservations for the given user ordered by
// creation time descending (newest first). When none exist, an empty
// slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]*ReservationDetail, error) {
	const q = `SELECT ` + detailColumns + `
	           FROM reservations b
	           JOIN slots s ON s.id = b.slot_id
	           JOIN restaurants r ON r.id = b.restaurant_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StaffReservationDetail extends the diner projection with the booking
// diner's contact fields for the restaurant's booking list.
type StaffReservationDetail struct {
	ReservationDetail
	UserID    uint64 `json:"user_id"`
	DinerName string `json:"diner_name"`
	DinerMail string `json:"diner_email"`
}

// ListByRestaurant returns reservations for one restaurant ordered by
// slot date and time, optionally filtered by date and/or status. It
// joins diner contact data for the staff booking list.
func (r *ReservationRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, date string, status model.ReservationStatus) ([]*StaffReservationDetail, error) {
	q := `SELECT ` + detailColumns + `, b.user_id, u.name, u.email
	      FROM reservations b
	      JOIN slots s ON s.id = b.slot_id
	      JOIN restaurants r ON r.id = b.restaurant_id
	      JOIN users u ON u.id = b.user_id
	      WHERE b.restaurant_id = ?`
	args := []any{restaurantID}
	if date != "" {
		q += ` AND s.date = ?`
		args = append(args, date)
	}
	if status != "" {
		q += ` AND b.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY s.date, s.time, b.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*StaffReservationDetail, 0)
	for rows.Next() {
		var d StaffReservationDetail
		var expiresAt, confirmedAt sql.NullTime
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.Status, &d.PartySize, &d.ConfirmationCode,
			&d.Date, &d.Time,
			&d.RestaurantID, &d.RestaurantName, &d.RestaurantSlug, &d.Neighborhood,
			&expiresAt, &confirmedAt, &createdAt,
			&d.UserID, &d.DinerName, &d.DinerMail); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			iso := expiresAt.Time.UTC().Format(time.RFC3339)
			d.ExpiresAt = &iso
		}
		if confirmedAt.Valid {
			iso := confirmedAt.Time.UTC().Format(time.RFC3339)
			d.ConfirmedAt = &iso
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// HasActiveOnSlotTx reports whether any active reservation other than
// the excluded one still claims the slot. Used to guard direct slot
// edits that would mark a claimed slot AVAILABLE.
func (r *ReservationRepo) HasActiveOnSlotTx(ctx context.Context, tx *sql.Tx, slotID, excludeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE slot_id = ? AND id <> ? AND status IN (?, ?, ?, ?)`
	var n int
	err := tx.QueryRowContext(ctx, q, slotID, excludeID,
		model.ReservationPending, model.ReservationHeld,
		model.ReservationConfirmed, model.ReservationSeated).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
