package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aydinmert/tablebook/internal/model"
	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/timeutil"
)

const (
	tonightGroupCap = 6  // restaurants shown per "now" / "later" page
	todaySlotScan   = 60 // slots fetched for the single-day listing
	todayGroupCap   = 12 // restaurants listed in the single-day view
	weekSlotScan    = 10 // slots fetched per day before picking restaurants
	weekPickCap     = 3  // restaurants highlighted per day
)

// availabilityStore is the slice of SlotRepo the availability reads
// need. Tests substitute a fake.
type availabilityStore interface {
	ListAvailableAt(ctx context.Context, pairs []timeutil.DayTimes, partySize int) ([]repository.AvailableSlot, error)
	ListAvailableByDate(ctx context.Context, date string, partySize, limit int) ([]repository.AvailableSlot, error)
	CountAvailableByDate(ctx context.Context, date string, partySize int) (int, error)
	ListByRestaurantDate(ctx context.Context, restaurantID uint64, date string, partySize int) ([]*model.TimeSlot, error)
}

// restaurantGetter resolves a restaurant for the per-restaurant view.
type restaurantGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// Availability serves the read-side discovery views. It only ever sees
// AVAILABLE slots (the store filters on status), so nothing here can
// leak a claimed slot.
type Availability struct {
	store       availabilityStore
	restaurants restaurantGetter
	now         func() time.Time
}

// NewAvailability constructs the discovery service.
func NewAvailability(store availabilityStore, restaurants restaurantGetter) *Availability {
	return &Availability{
		store:       store,
		restaurants: restaurants,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Tests use it to pin "now".
func (a *Availability) WithClock(now func() time.Time) *Availability {
	a.now = now
	return a
}

// SlotView is one bookable slot inside a discovery response. Time is in
// 12-hour display form.
type SlotView struct {
	SlotID    uint64 `json:"slot_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
}

// RestaurantAvailability is a restaurant together with its open slots
// for the window being browsed.
type RestaurantAvailability struct {
	RestaurantID uint64     `json:"restaurant_id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Neighborhood string     `json:"neighborhood"`
	Category     string     `json:"category"`
	HeroImageURL string     `json:"hero_image_url"`
	Slots        []SlotView `json:"slots"`
}

// TonightView pages through the restaurants with open tables in the
// next 24 hours: the first six by earliest open table in "now", the
// following six in "later".
type TonightView struct {
	Now   []RestaurantAvailability `json:"now"`
	Later []RestaurantAvailability `json:"later"`
}

// DayView is one day of the week overview: how many tables are open in
// total and a handful of restaurants picked to represent the day.
type DayView struct {
	Date           string                   `json:"date"`
	AvailableCount int                      `json:"available_count"`
	Picks          []RestaurantAvailability `json:"picks"`
}

// Tonight returns open tables in the rolling 24-hour window starting at
// the current hour. Restaurants are grouped over the whole window in
// order of earliest open table and paginated six at a time: the first
// six form the "now" bucket, the next six "later".
func (a *Availability) Tonight(ctx context.Context, partySize int) (*TonightView, error) {
	pairs := timeutil.Next24Hours(a.now())
	rows, err := a.store.ListAvailableAt(ctx, pairs, partySize)
	if err != nil {
		return nil, err
	}
	groups := groupByRestaurant(rows, 2*tonightGroupCap)
	view := &TonightView{
		Now:   groups,
		Later: []RestaurantAvailability{},
	}
	if len(groups) > tonightGroupCap {
		view.Now = groups[:tonightGroupCap]
		view.Later = groups[tonightGroupCap:]
	}
	return view, nil
}

// TodayView lists the restaurants with open tables on one date,
// together with the raw open-table count for that day.
type TodayView struct {
	Date           string                   `json:"date"`
	AvailableCount int                      `json:"available_count"`
	Restaurants    []RestaurantAvailability `json:"restaurants"`
}

// Today returns restaurants with open tables on a single date, grouped
// in earliest-table order. An empty date means today.
func (a *Availability) Today(ctx context.Context, date string, partySize int) (*TodayView, error) {
	if date == "" {
		date = a.now().Format(timeutil.DateLayout)
	} else if !timeutil.ValidDate(date) {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}
	rows, err := a.store.ListAvailableByDate(ctx, date, partySize, todaySlotScan)
	if err != nil {
		return nil, err
	}
	count, err := a.store.CountAvailableByDate(ctx, date, partySize)
	if err != nil {
		return nil, err
	}
	return &TodayView{
		Date:           date,
		AvailableCount: count,
		Restaurants:    groupByRestaurant(rows, todayGroupCap),
	}, nil
}

// Week returns a day-by-day availability overview for the given number
// of days. An empty start means today. Each day carries its total
// open-table count and up to three representative restaurants with
// their earliest slots.
func (a *Availability) Week(ctx context.Context, start string, days, partySize int) ([]DayView, error) {
	if days <= 0 {
		days = 7
	}
	if start == "" {
		start = a.now().Format(timeutil.DateLayout)
	} else if !timeutil.ValidDate(start) {
		return nil, fmt.Errorf("%w: invalid start date %q", ErrInvalidInput, start)
	}
	dates, err := timeutil.DatesFrom(start, days)
	if err != nil {
		return nil, err
	}
	out := make([]DayView, 0, len(dates))
	for _, date := range dates {
		rows, err := a.store.ListAvailableByDate(ctx, date, partySize, weekSlotScan)
		if err != nil {
			return nil, err
		}
		count, err := a.store.CountAvailableByDate(ctx, date, partySize)
		if err != nil {
			return nil, err
		}
		out = append(out, DayView{
			Date:           date,
			AvailableCount: count,
			Picks:          groupByRestaurant(rows, weekPickCap),
		})
	}
	return out, nil
}

// RestaurantSlot is one slot in the per-restaurant detail view. Status
// is either AVAILABLE or FULL; the internal REQUESTED state is masked
// so diners cannot distinguish a pending request from a confirmed one.
type RestaurantSlot struct {
	SlotID      uint64 `json:"slot_id"`
	Time        string `json:"time"`
	DisplayTime string `json:"display_time"`
	PartySize   int    `json:"party_size"`
	Status      string `json:"status"`
}

// RestaurantView is the detail page payload: the restaurant profile
// plus its full slot grid for one date.
type RestaurantView struct {
	Restaurant *model.Restaurant `json:"restaurant"`
	Date       string            `json:"date"`
	Slots      []RestaurantSlot  `json:"slots"`
}

// ForRestaurant returns every slot of one restaurant on one date, for
// the requested party size (or all party sizes when partySize is zero).
// Any slot that is not AVAILABLE is presented as FULL.
func (a *Availability) ForRestaurant(ctx context.Context, restaurantID uint64, date string, partySize int) (*RestaurantView, error) {
	if !timeutil.ValidDate(date) {
		return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, date)
	}
	restaurant, err := a.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	slots, err := a.store.ListByRestaurantDate(ctx, restaurantID, date, partySize)
	if err != nil {
		return nil, err
	}
	view := &RestaurantView{
		Restaurant: restaurant,
		Date:       date,
		Slots:      make([]RestaurantSlot, 0, len(slots)),
	}
	for _, s := range slots {
		status := model.SlotFull
		if s.Status == model.SlotAvailable {
			status = model.SlotAvailable
		}
		view.Slots = append(view.Slots, RestaurantSlot{
			SlotID:      s.ID,
			Time:        s.Time,
			DisplayTime: timeutil.DisplayClock(s.Time),
			PartySize:   s.PartySize,
			Status:      string(status),
		})
	}
	return view, nil
}

// groupByRestaurant folds a time-ordered slot list into per-restaurant
// groups, keeping first-seen order so restaurants with the earliest
// open table come first. At most cap restaurants are returned; slots
// beyond the cap for an already-seen restaurant are still attached.
func groupByRestaurant(rows []repository.AvailableSlot, limit int) []RestaurantAvailability {
	out := []RestaurantAvailability{}
	index := map[uint64]int{}
	for _, row := range rows {
		i, seen := index[row.RestaurantID]
		if !seen {
			if len(out) >= limit {
				continue
			}
			out = append(out, RestaurantAvailability{
				RestaurantID: row.RestaurantID,
				Name:         row.RestaurantName,
				Slug:         row.RestaurantSlug,
				Neighborhood: row.Neighborhood,
				Category:     row.Category,
				HeroImageURL: row.HeroImageURL,
			})
			i = len(out) - 1
			index[row.RestaurantID] = i
		}
		out[i].Slots = append(out[i].Slots, SlotView{
			SlotID:    row.SlotID,
			Date:      row.Date,
			Time:      timeutil.DisplayClock(row.Time),
			PartySize: row.PartySize,
		})
	}
	return out
}
