package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/service"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// testValidator mirrors the server's request validator without pulling
// in the router package.
type testValidator struct{ validate *validator.Validate }

func (tv testValidator) Validate(i any) error { return tv.validate.Struct(i) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = testValidator{validate: validator.New()}
	return e
}

func TestHealth(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, Health(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"tablebook"}`, rec.Body.String())
}

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrInvalidInput, http.StatusBadRequest},
		{repository.ErrRestaurantNotFound, http.StatusNotFound},
		{repository.ErrSlotNotFound, http.StatusNotFound},
		{repository.ErrReservationNotFound, http.StatusNotFound},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrAlreadyProcessed, http.StatusConflict},
		{repository.ErrSlotUnavailable, http.StatusConflict},
		{repository.ErrHoldExpired, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := newEcho()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, writeDomainError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestDinerCreateRejectsMalformedBody(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	lifecycle := service.NewLifecycle(db,
		repository.NewRestaurantRepo(db),
		repository.NewSlotRepo(db),
		repository.NewReservationRepo(db),
		10*time.Minute)
	h := NewDinerHandler(lifecycle, repository.NewReservationRepo(db))

	e := newEcho()
	body := `{"restaurant_id": 3, "date": "2025-06-14"}` // missing time and party_size
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(12))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDinerCreateConflictOnClaimedSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	lifecycle := service.NewLifecycle(db,
		repository.NewRestaurantRepo(db),
		repository.NewSlotRepo(db),
		repository.NewReservationRepo(db),
		10*time.Minute)
	h := NewDinerHandler(lifecycle, repository.NewReservationRepo(db))

	now := time.Now().UTC()
	mock.ExpectQuery("FROM restaurants WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "neighborhood", "category", "hero_image_url", "phone", "website", "created_at", "updated_at",
		}).AddRow(3, "Lucia", "lucia", "Mission", "Italian", "", "", "", now, now))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO slots").
		WillReturnResult(sqlmock.NewResult(7, 0))
	mock.ExpectQuery("FROM slots WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "date", "time", "party_size", "status", "created_at", "updated_at",
		}).AddRow(7, 3, "2025-06-14", "19:30", 2, "REQUESTED", now, now))
	mock.ExpectExec("UPDATE reservations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE slots SET status = \\? WHERE id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	e := newEcho()
	body := `{"restaurant_id": 3, "date": "2025-06-14", "time": "7:30 PM", "party_size": 2}`
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(12))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// tonightStore feeds a fixed availability row set to the service layer.
type tonightStore struct{}

func (tonightStore) ListAvailableAt(_ context.Context, pairs []timeutil.DayTimes, _ int) ([]repository.AvailableSlot, error) {
	return []repository.AvailableSlot{{
		SlotID:         1,
		Date:           pairs[0].Date,
		Time:           "19:00",
		PartySize:      2,
		RestaurantID:   10,
		RestaurantName: "Lucia",
		RestaurantSlug: "lucia",
	}}, nil
}
func (tonightStore) ListAvailableByDate(context.Context, string, int, int) ([]repository.AvailableSlot, error) {
	return nil, nil
}
func (tonightStore) CountAvailableByDate(context.Context, string, int) (int, error) { return 0, nil }
func (tonightStore) ListByRestaurantDate(context.Context, uint64, string, int) ([]*model.TimeSlot, error) {
	return nil, nil
}

type tonightRestaurants struct{}

func (tonightRestaurants) GetByID(context.Context, uint64) (*model.Restaurant, error) {
	return &model.Restaurant{ID: 10, Name: "Lucia"}, nil
}

func TestTonightHandler(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	availability := service.NewAvailability(tonightStore{}, tonightRestaurants{})
	h := NewPublicHandler(repository.NewRestaurantRepo(db), availability)

	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/discover/tonight?party_size=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Tonight(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var view service.TonightView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Now, 1)
	assert.Equal(t, "Lucia", view.Now[0].Name)
	assert.Equal(t, "7:00 PM", view.Now[0].Slots[0].Time)
}

func TestTonightHandlerRejectsBadPartySize(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	availability := service.NewAvailability(tonightStore{}, tonightRestaurants{})
	h := NewPublicHandler(repository.NewRestaurantRepo(db), availability)

	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/discover/tonight?party_size=zero", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Tonight(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityHandlerRequiresDate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	availability := service.NewAvailability(tonightStore{}, tonightRestaurants{})
	h := NewPublicHandler(repository.NewRestaurantRepo(db), availability)

	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/restaurants/10/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("10")

	require.NoError(t, h.GetRestaurantAvailability(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminListSlotsGuards(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h := NewAdminSlotHandler(service.NewSlotAdmin(db,
		repository.NewSlotRepo(db), repository.NewReservationRepo(db)))

	e := newEcho()

	t.Run("no restaurant claim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/slots?date=2025-06-14", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, h.ListSlots(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/slots", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("restaurant_id", uint64(3))
		require.NoError(t, h.ListSlots(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
