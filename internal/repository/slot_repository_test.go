package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

func newSlotMock(t *testing.T) (*SlotRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSlotRepo(db), mock
}

func slotRows(id uint64, status model.SlotStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "restaurant_id", "date", "time", "party_size", "status", "created_at", "updated_at",
	}).AddRow(id, 3, "2025-06-14", "19:30", 2, string(status), now, now)
}

func TestFindOrCreateTxCreatesNewSlot(t *testing.T) {
	repo, mock := newSlotMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO slots").
		WithArgs(uint64(3), "2025-06-14", "19:30", 2, model.SlotAvailable).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT (.+) FROM slots WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnRows(slotRows(7, model.SlotAvailable))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)

	slot, created, err := repo.FindOrCreateTx(context.Background(), tx, 3, "2025-06-14", "19:30", 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(7), slot.ID)
	assert.Equal(t, model.SlotAvailable, slot.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateTxReturnsExistingSlot(t *testing.T) {
	repo, mock := newSlotMock(t)

	mock.ExpectBegin()
	// The duplicate branch echoes the existing id and affects zero rows.
	mock.ExpectExec("INSERT INTO slots").
		WithArgs(uint64(3), "2025-06-14", "19:30", 2, model.SlotAvailable).
		WillReturnResult(sqlmock.NewResult(7, 0))
	mock.ExpectQuery("SELECT (.+) FROM slots WHERE id = ?").
		WithArgs(int64(7)).
		WillReturnRows(slotRows(7, model.SlotRequested))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)

	slot, created, err := repo.FindOrCreateTx(context.Background(), tx, 3, "2025-06-14", "19:30", 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.SlotRequested, slot.Status, "existing slot status must be untouched")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotStatusCAS(t *testing.T) {
	t.Run("wins when status matches", func(t *testing.T) {
		repo, mock := newSlotMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE slots SET status = \\? WHERE id = \\? AND status = \\?").
			WithArgs(model.SlotRequested, uint64(7), model.SlotAvailable).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := repo.DB().Begin()
		require.NoError(t, err)
		won, err := repo.UpdateStatusCASTx(context.Background(), tx, 7, model.SlotAvailable, model.SlotRequested)
		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses when another writer got there first", func(t *testing.T) {
		repo, mock := newSlotMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE slots SET status = \\? WHERE id = \\? AND status = \\?").
			WithArgs(model.SlotRequested, uint64(7), model.SlotAvailable).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := repo.DB().Begin()
		require.NoError(t, err)
		won, err := repo.UpdateStatusCASTx(context.Background(), tx, 7, model.SlotAvailable, model.SlotRequested)
		require.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseTxKeepsClaimedSlot(t *testing.T) {
	repo, mock := newSlotMock(t)
	mock.ExpectBegin()
	// An active reservation still claims the slot; the guarded update
	// affects no rows.
	mock.ExpectExec("UPDATE slots SET status = \\?").
		WithArgs(model.SlotAvailable, uint64(7), uint64(7),
			model.ReservationPending, model.ReservationHeld,
			model.ReservationConfirmed, model.ReservationSeated).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := repo.DB().Begin()
	require.NoError(t, err)
	released, err := repo.ReleaseTx(context.Background(), tx, 7)
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBulkSkipsDuplicates(t *testing.T) {
	repo, mock := newSlotMock(t)
	times := []string{"17:00", "17:30", "18:00"}
	// One of the three tuples already exists; INSERT IGNORE reports two
	// created rows.
	mock.ExpectExec("INSERT IGNORE INTO slots").
		WillReturnResult(sqlmock.NewResult(0, 2))

	created, err := repo.CreateBulk(context.Background(), 3, "2025-06-14", times, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBulkNoTimes(t *testing.T) {
	repo, mock := newSlotMock(t)
	created, err := repo.CreateBulk(context.Background(), 3, "2025-06-14", nil, 4)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newSlotMock(t)
	mock.ExpectQuery("SELECT (.+) FROM slots WHERE id = ?").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableAtEmptyWindow(t *testing.T) {
	repo, mock := newSlotMock(t)
	out, err := repo.ListAvailableAt(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableAtBuildsRowConstructor(t *testing.T) {
	repo, mock := newSlotMock(t)
	pairs := []timeutil.DayTimes{
		{Date: "2025-06-14", Time: "22:00"},
		{Date: "2025-06-14", Time: "23:00"},
	}
	rows := sqlmock.NewRows([]string{
		"id", "date", "time", "party_size",
		"rid", "name", "slug", "neighborhood", "category", "hero_image_url",
	}).AddRow(7, "2025-06-14", "22:00", 2, 3, "Lucia", "lucia", "Mission", "Italian", "")
	mock.ExpectQuery("FROM slots s").
		WithArgs(model.SlotAvailable, 2, "2025-06-14", "22:00", "2025-06-14", "23:00").
		WillReturnRows(rows)

	out, err := repo.ListAvailableAt(context.Background(), pairs, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Lucia", out[0].RestaurantName)
	assert.Equal(t, "22:00", out[0].Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}
