// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for restaurants. A restaurant owns
// its time slots and reservations; rows are created by admin tooling and
// mutated by profile updates, never hard-deleted in normal operation.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aydinmert/tablebook/internal/model"
)

// RestaurantRepo encapsulates all database queries related to restaurants.
// It depends on a sql.DB connection injected at startup (or a mock in tests).
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo constructs a RestaurantRepo with the provided DB handle.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// DB exposes the underlying handle so services can open transactions
// spanning several repositories.
func (r *RestaurantRepo) DB() *sql.DB { return r.db }

const restaurantColumns = `id, name, slug, neighborhood, category, hero_image_url, phone, website, created_at, updated_at`

func scanRestaurant(row interface{ Scan(...any) error }) (*model.Restaurant, error) {
	var m model.Restaurant
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Neighborhood, &m.Category,
		&m.HeroImageURL, &m.Phone, &m.Website, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new restaurant. On success the ID field is populated
// with the auto-generated value and the timestamps are read back so the
// caller receives a fully populated record.
func (r *RestaurantRepo) Create(ctx context.Context, m *model.Restaurant) error {
	const qInsert = `INSERT INTO restaurants (name, slug, neighborhood, category, hero_image_url, phone, website)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		m.Name, m.Slug, m.Neighborhood, m.Category, m.HeroImageURL, m.Phone, m.Website)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const qSelect = `SELECT created_at, updated_at FROM restaurants WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches a restaurant by its ID. It returns ErrRestaurantNotFound
// when no row exists.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = ?`
	m, err := scanRestaurant(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return m, nil
}

// ListAll returns every restaurant ordered by name. The directory is
// small (single-city product) so no pagination is applied.
func (r *RestaurantRepo) ListAll(ctx context.Context) ([]*model.Restaurant, error) {
	const q = `SELECT ` + restaurantColumns + ` FROM restaurants ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Restaurant
	for rows.Next() {
		m, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile updates the display metadata of a restaurant. The slug
// is computed by the caller from the new name. It returns
// ErrRestaurantNotFound when no row is affected.
func (r *RestaurantRepo) UpdateProfile(ctx context.Context, m *model.Restaurant) error {
	const q = `UPDATE restaurants
	           SET name = ?, slug = ?, neighborhood = ?, category = ?, hero_image_url = ?, phone = ?, website = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		m.Name, m.Slug, m.Neighborhood, m.Category, m.HeroImageURL, m.Phone, m.Website, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows both for a missing id and for a
		// no-op update, so re-check existence before reporting not found.
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}
