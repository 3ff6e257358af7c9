package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

// fakeSlotStore serves canned availability rows and records the windows
// it was asked for.
type fakeSlotStore struct {
	atRows    []repository.AvailableSlot
	dayRows   map[string][]repository.AvailableSlot
	dayCounts map[string]int
	slots     []*model.TimeSlot
	gotPairs  []timeutil.DayTimes
}

func (f *fakeSlotStore) ListAvailableAt(_ context.Context, pairs []timeutil.DayTimes, _ int) ([]repository.AvailableSlot, error) {
	f.gotPairs = pairs
	return f.atRows, nil
}

func (f *fakeSlotStore) ListAvailableByDate(_ context.Context, date string, _, limit int) ([]repository.AvailableSlot, error) {
	rows := f.dayRows[date]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeSlotStore) CountAvailableByDate(_ context.Context, date string, _ int) (int, error) {
	return f.dayCounts[date], nil
}

func (f *fakeSlotStore) ListByRestaurantDate(_ context.Context, _ uint64, _ string, _ int) ([]*model.TimeSlot, error) {
	return f.slots, nil
}

type fakeRestaurants struct {
	restaurant *model.Restaurant
	err        error
}

func (f *fakeRestaurants) GetByID(context.Context, uint64) (*model.Restaurant, error) {
	return f.restaurant, f.err
}

func avail(slotID, restaurantID uint64, name, date, clock string) repository.AvailableSlot {
	return repository.AvailableSlot{
		SlotID:         slotID,
		Date:           date,
		Time:           clock,
		PartySize:      2,
		RestaurantID:   restaurantID,
		RestaurantName: name,
		RestaurantSlug: name,
	}
}

func TestTonightRollingWindow(t *testing.T) {
	now := time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)
	store := &fakeSlotStore{
		atRows: []repository.AvailableSlot{
			avail(1, 10, "lucia", "2025-06-14", "22:00"),
			avail(2, 10, "lucia", "2025-06-14", "23:00"),
			avail(3, 11, "noon", "2025-06-14", "23:00"),
			avail(4, 12, "owl", "2025-06-15", "01:00"),
		},
	}
	a := NewAvailability(store, &fakeRestaurants{}).
		WithClock(func() time.Time { return now })

	view, err := a.Tonight(context.Background(), 2)
	require.NoError(t, err)

	// The rolling window starts at the current hour.
	require.NotEmpty(t, store.gotPairs)
	assert.Equal(t, timeutil.DayTimes{Date: "2025-06-14", Time: "22:00"}, store.gotPairs[0])
	assert.Len(t, store.gotPairs, 24)

	// Fewer than seven restaurants: everything pages into "now",
	// ordered by earliest open table across the midnight boundary.
	require.Len(t, view.Now, 3)
	assert.Equal(t, "lucia", view.Now[0].Name)
	assert.Len(t, view.Now[0].Slots, 2)
	assert.Equal(t, "10:00 PM", view.Now[0].Slots[0].Time)
	assert.Equal(t, "owl", view.Now[2].Name)
	assert.Equal(t, "1:00 AM", view.Now[2].Slots[0].Time)
	assert.Empty(t, view.Later)
}

func TestTonightPaginatesOverflowIntoLater(t *testing.T) {
	now := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	store := &fakeSlotStore{}
	for i := uint64(1); i <= 7; i++ {
		store.atRows = append(store.atRows, avail(i, i, "r", "2025-06-14", "19:00"))
	}
	store.atRows = append(store.atRows, avail(8, 8, "owl", "2025-06-15", "01:00"))
	a := NewAvailability(store, &fakeRestaurants{}).
		WithClock(func() time.Time { return now })

	view, err := a.Tonight(context.Background(), 2)
	require.NoError(t, err)

	// Eight restaurants have tables; the seventh and eighth page into
	// "later" instead of being dropped.
	require.Len(t, view.Now, 6)
	require.Len(t, view.Later, 2)
	assert.Equal(t, uint64(7), view.Later[0].RestaurantID)
	assert.Equal(t, "owl", view.Later[1].Name)
}

func TestTonightCapsAtTwoPages(t *testing.T) {
	now := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	store := &fakeSlotStore{}
	for i := uint64(1); i <= 15; i++ {
		store.atRows = append(store.atRows, avail(i, i, "r", "2025-06-14", "19:00"))
	}
	a := NewAvailability(store, &fakeRestaurants{}).
		WithClock(func() time.Time { return now })

	view, err := a.Tonight(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, view.Now, 6)
	assert.Len(t, view.Later, 6)
}

func TestTodayGroupsRestaurants(t *testing.T) {
	now := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	store := &fakeSlotStore{
		dayRows: map[string][]repository.AvailableSlot{
			"2025-06-14": {
				avail(1, 10, "lucia", "2025-06-14", "18:00"),
				avail(2, 11, "noon", "2025-06-14", "18:30"),
				avail(3, 10, "lucia", "2025-06-14", "19:00"),
			},
		},
		dayCounts: map[string]int{"2025-06-14": 3},
	}
	a := NewAvailability(store, &fakeRestaurants{}).
		WithClock(func() time.Time { return now })

	view, err := a.Today(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-14", view.Date)
	assert.Equal(t, 3, view.AvailableCount)
	require.Len(t, view.Restaurants, 2)
	assert.Equal(t, "lucia", view.Restaurants[0].Name)
	assert.Len(t, view.Restaurants[0].Slots, 2)
}

func TestTodayExplicitAndBadDate(t *testing.T) {
	store := &fakeSlotStore{dayCounts: map[string]int{"2025-07-01": 5}}
	a := NewAvailability(store, &fakeRestaurants{})

	view, err := a.Today(context.Background(), "2025-07-01", 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01", view.Date)
	assert.Equal(t, 5, view.AvailableCount)
	assert.Empty(t, view.Restaurants)

	_, err = a.Today(context.Background(), "tonight", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWeekPicksAndCounts(t *testing.T) {
	now := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	store := &fakeSlotStore{
		dayRows: map[string][]repository.AvailableSlot{
			"2025-06-14": {
				avail(1, 10, "a", "2025-06-14", "18:00"),
				avail(2, 11, "b", "2025-06-14", "18:30"),
				avail(3, 12, "c", "2025-06-14", "19:00"),
				avail(4, 13, "d", "2025-06-14", "19:30"),
			},
		},
		dayCounts: map[string]int{"2025-06-14": 37},
	}
	a := NewAvailability(store, &fakeRestaurants{}).
		WithClock(func() time.Time { return now })

	days, err := a.Week(context.Background(), "", 3, 2)
	require.NoError(t, err)
	require.Len(t, days, 3)

	first := days[0]
	assert.Equal(t, "2025-06-14", first.Date)
	assert.Equal(t, 37, first.AvailableCount)
	// Only three restaurants are highlighted even though four had slots.
	assert.Len(t, first.Picks, 3)

	// Days with no inventory still appear, empty.
	assert.Equal(t, "2025-06-15", days[1].Date)
	assert.Zero(t, days[1].AvailableCount)
	assert.Empty(t, days[1].Picks)
}

func TestWeekExplicitStart(t *testing.T) {
	a := NewAvailability(&fakeSlotStore{}, &fakeRestaurants{})

	days, err := a.Week(context.Background(), "2025-07-01", 2, 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-07-01", days[0].Date)
	assert.Equal(t, "2025-07-02", days[1].Date)

	_, err = a.Week(context.Background(), "01-07-2025", 2, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestForRestaurantMasksInternalStates(t *testing.T) {
	store := &fakeSlotStore{
		slots: []*model.TimeSlot{
			{ID: 1, Time: "18:00", PartySize: 2, Status: model.SlotAvailable},
			{ID: 2, Time: "18:30", PartySize: 2, Status: model.SlotRequested},
			{ID: 3, Time: "19:00", PartySize: 2, Status: model.SlotFull},
		},
	}
	restaurants := &fakeRestaurants{restaurant: &model.Restaurant{ID: 10, Name: "Lucia"}}
	a := NewAvailability(store, restaurants)

	view, err := a.ForRestaurant(context.Background(), 10, "2025-06-14", 2)
	require.NoError(t, err)
	require.Len(t, view.Slots, 3)
	assert.Equal(t, "AVAILABLE", view.Slots[0].Status)
	// REQUESTED must be indistinguishable from FULL for diners.
	assert.Equal(t, "FULL", view.Slots[1].Status)
	assert.Equal(t, "FULL", view.Slots[2].Status)
	assert.Equal(t, "6:30 PM", view.Slots[1].DisplayTime)
}

func TestForRestaurantUnknownRestaurant(t *testing.T) {
	a := NewAvailability(&fakeSlotStore{}, &fakeRestaurants{err: repository.ErrRestaurantNotFound})
	_, err := a.ForRestaurant(context.Background(), 99, "2025-06-14", 2)
	assert.ErrorIs(t, err, repository.ErrRestaurantNotFound)
}

func TestForRestaurantRejectsBadDate(t *testing.T) {
	a := NewAvailability(&fakeSlotStore{}, &fakeRestaurants{})
	_, err := a.ForRestaurant(context.Background(), 10, "June 14th", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
