package repository

// This file provides persistence for time slots. The slots table carries
// a unique key on (restaurant_id, date, time, party_size); that tuple is
// the idempotency key for allocation, so find-or-create is implemented
// as a single atomic upsert rather than a read-then-write. Status
// mutations that participate in reservation transitions are exposed as
// ...Tx methods and executed inside the caller's transaction.

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// SlotRepo encapsulates database operations on the slots table.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *SlotRepo) DB() *sql.DB { return r.db }

const slotColumns = `id, restaurant_id, date, time, party_size, status, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(&s.ID, &s.RestaurantID, &s.Date, &s.Time, &s.PartySize,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOrCreateTx resolves a (restaurant, date, time, partySize) tuple to
// exactly one slot row, inserting it as AVAILABLE when absent. The
// upsert relies on the unique key and never modifies an existing row's
// status: the ON DUPLICATE KEY clause only echoes the existing id back
// through LAST_INSERT_ID. The returned flag reports whether a new row
// was created. The caller owns the transaction.
func (r *SlotRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, restaurantID uint64, date, clock string, partySize int) (*model.TimeSlot, bool, error) {
	const qUpsert = `INSERT INTO slots (restaurant_id, date, time, party_size, status)
	                 VALUES (?, ?, ?, ?, ?)
	                 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := tx.ExecContext(ctx, qUpsert, restaurantID, date, clock, partySize, model.SlotAvailable)
	if err != nil {
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	// MySQL reports 1 affected row for a fresh insert and 0 for the no-op
	// duplicate branch.
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	const qSelect = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	slot, err := scanSlot(tx.QueryRowContext(ctx, qSelect, id))
	if err != nil {
		return nil, false, err
	}
	return slot, affected == 1, nil
}

// GetByID fetches a slot by primary key, returning ErrSlotNotFound when
// it does not exist.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.TimeSlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	slot, err := scanSlot(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

// GetForUpdateTx loads a slot inside the transaction with a row lock so
// a concurrent transition on the same slot serializes behind it.
func (r *SlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.TimeSlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM slots WHERE id = ? FOR UPDATE`
	slot, err := scanSlot(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

// UpdateStatusCASTx moves a slot from one status to another as a
// compare-and-swap: the update only applies when the slot is still in
// the expected status. It reports whether the swap won.
func (r *SlotRepo) UpdateStatusCASTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.SlotStatus) (bool, error) {
	const q = `UPDATE slots SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetStatusTx writes a slot status unconditionally inside the caller's
// transaction. Lifecycle transitions that already validated the
// reservation precondition use this for the paired slot write.
func (r *SlotRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, to model.SlotStatus) error {
	const q = `UPDATE slots SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, to, id)
	return err
}

// ReleaseTx returns a slot to AVAILABLE unless another active
// reservation still claims it. It reports whether the slot was actually
// released.
func (r *SlotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	const q = `UPDATE slots SET status = ?
	           WHERE id = ?
	             AND NOT EXISTS (
	                 SELECT 1 FROM reservations
	                 WHERE slot_id = ? AND status IN (?, ?, ?, ?)
	             )`
	res, err := tx.ExecContext(ctx, q, model.SlotAvailable, id, id,
		model.ReservationPending, model.ReservationHeld,
		model.ReservationConfirmed, model.ReservationSeated)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CreateBulk inserts one AVAILABLE slot per time for the given
// restaurant, date and party size in a single INSERT IGNORE statement.
// Tuples that already exist are skipped by the unique key, which keeps
// bulk generation idempotent under retries. It returns the number of
// rows actually created.
func (r *SlotRepo) CreateBulk(ctx context.Context, restaurantID uint64, date string, times []string, partySize int) (int64, error) {
	if len(times) == 0 {
		return 0, nil
	}
	query := `INSERT IGNORE INTO slots (restaurant_id, date, time, party_size, status) VALUES `
	args := make([]any, 0, len(times)*5)
	for i, t := range times {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, restaurantID, date, t, partySize, model.SlotAvailable)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByRestaurantDate returns every slot for one restaurant and date
// ordered by time. A partySize of zero lists all party sizes (the admin
// inventory view); a positive value filters to that size (the diner
// detail view).
func (r *SlotRepo) ListByRestaurantDate(ctx context.Context, restaurantID uint64, date string, partySize int) ([]*model.TimeSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM slots WHERE restaurant_id = ? AND date = ?`
	args := []any{restaurantID, date}
	if partySize > 0 {
		q += ` AND party_size = ?`
		args = append(args, partySize)
	}
	q += ` ORDER BY time, party_size`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AvailableSlot is the read-side projection used by discovery queries.
// It joins the owning restaurant's display fields onto the slot row so
// availability views can group by restaurant without extra lookups.
type AvailableSlot struct {
	SlotID         uint64 `json:"slot_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PartySize      int    `json:"party_size"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	RestaurantSlug string `json:"restaurant_slug"`
	Neighborhood   string `json:"neighborhood"`
	Category       string `json:"category"`
	HeroImageURL   string `json:"hero_image_url"`
}

const availableSlotColumns = `s.id, s.date, s.time, s.party_size,
	       r.id, r.name, r.slug, r.neighborhood, r.category, r.hero_image_url`

func scanAvailableSlot(rows *sql.Rows) (AvailableSlot, error) {
	var a AvailableSlot
	err := rows.Scan(&a.SlotID, &a.Date, &a.Time, &a.PartySize,
		&a.RestaurantID, &a.RestaurantName, &a.RestaurantSlug,
		&a.Neighborhood, &a.Category, &a.HeroImageURL)
	return a, err
}

// ListAvailableAt returns AVAILABLE slots for the requested party size
// matching any of the given (date, time) pairs, ordered by date then
// time. It powers the rolling "tonight" window.
func (r *SlotRepo) ListAvailableAt(ctx context.Context, pairs []timeutil.DayTimes, partySize int) ([]AvailableSlot, error) {
	if len(pairs) == 0 {
		return []AvailableSlot{}, nil
	}
	placeholders := make([]string, 0, len(pairs))
	args := []any{model.SlotAvailable, partySize}
	for _, p := range pairs {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, p.Date, p.Time)
	}
	query := `SELECT ` + availableSlotColumns + `
	          FROM slots s
	          JOIN restaurants r ON r.id = s.restaurant_id
	          WHERE s.status = ? AND s.party_size = ?
	            AND (s.date, s.time) IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY s.date, s.time, r.name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AvailableSlot, 0)
	for rows.Next() {
		a, err := scanAvailableSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAvailableByDate returns up to limit AVAILABLE slots for one date
// and party size ordered by time, joined with restaurant display data.
func (r *SlotRepo) ListAvailableByDate(ctx context.Context, date string, partySize, limit int) ([]AvailableSlot, error) {
	query := `SELECT ` + availableSlotColumns + `
	          FROM slots s
	          JOIN restaurants r ON r.id = s.restaurant_id
	          WHERE s.status = ? AND s.party_size = ? AND s.date = ?
	          ORDER BY s.time, r.name
	          LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, model.SlotAvailable, partySize, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AvailableSlot, 0)
	for rows.Next() {
		a, err := scanAvailableSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountAvailableByDate returns the raw number of AVAILABLE slots for a
// date and party size, reported alongside the week view's picks.
func (r *SlotRepo) CountAvailableByDate(ctx context.Context, date string, partySize int) (int, error) {
	const q = `SELECT COUNT(*) FROM slots WHERE status = ? AND party_size = ? AND date = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, model.SlotAvailable, partySize, date).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
