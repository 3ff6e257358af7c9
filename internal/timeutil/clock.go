// Package timeutil normalizes the clock and date strings used by the
// reservation system.  Storage and comparisons always use 24-hour
// "HH:mm" strings and "YYYY-MM-DD" dates; diner-facing responses render
// times in 12-hour "h:mm AM/PM" form.  All parsing is locale-free.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical calendar date layout ("YYYY-MM-DD").
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical 24-hour clock layout ("HH:mm").
	ClockLayout = "15:04"
	// displayLayout is the diner-facing 12-hour layout ("h:mm AM/PM").
	displayLayout = "3:04 PM"
)

// NormalizeClock accepts either a 24-hour "HH:mm" string or a 12-hour
// "h:mm AM/PM" string (case-insensitive meridiem, optional space) and
// returns the canonical 24-hour form.  "7:30 PM" becomes "19:30" and
// "19:30" round-trips unchanged.
func NormalizeClock(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty time")
	}
	if t, err := time.Parse(ClockLayout, s); err == nil {
		return t.Format(ClockLayout), nil
	}
	// Accept "7:30PM" as well as "7:30 PM" by upper-casing and re-spacing
	// the meridiem before parsing.
	up := strings.ToUpper(s)
	up = strings.ReplaceAll(up, "AM", " AM")
	up = strings.ReplaceAll(up, "PM", " PM")
	up = strings.Join(strings.Fields(up), " ")
	if t, err := time.Parse(displayLayout, up); err == nil {
		return t.Format(ClockLayout), nil
	}
	return "", fmt.Errorf("invalid time %q", raw)
}

// DisplayClock renders a canonical 24-hour "HH:mm" string in the
// 12-hour "h:mm AM/PM" form used by read-side responses.  Invalid input
// is returned unchanged so a malformed row never breaks a listing.
func DisplayClock(canonical string) string {
	t, err := time.Parse(ClockLayout, canonical)
	if err != nil {
		return canonical
	}
	return t.Format(displayLayout)
}

// ValidDate reports whether raw is a syntactically valid "YYYY-MM-DD"
// calendar date.
func ValidDate(raw string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	return err == nil
}

// ExpandInterval returns every "HH:mm" timestamp start + k*interval that
// is strictly before end, in ascending order.  It is used by the bulk
// slot generator.  start and end must be canonical 24-hour strings and
// interval must be a positive number of minutes.
func ExpandInterval(start, end string, intervalMinutes int) ([]string, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", intervalMinutes)
	}
	st, err := time.Parse(ClockLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q", start)
	}
	en, err := time.Parse(ClockLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end time %q", end)
	}
	if !st.Before(en) {
		return nil, fmt.Errorf("start %q must be before end %q", start, end)
	}
	var out []string
	step := time.Duration(intervalMinutes) * time.Minute
	for t := st; t.Before(en); t = t.Add(step) {
		out = append(out, t.Format(ClockLayout))
	}
	return out, nil
}

// DayTimes is one (date, time) pair produced by window enumeration.
type DayTimes struct {
	Date string
	Time string
}

// Next24Hours enumerates every hour-slot from the current hour through
// 23:00 of now's date, then 00:00 up to (but excluding) the current hour
// on the following date.  The pairs drive the "tonight" availability
// query.
func Next24Hours(now time.Time) []DayTimes {
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)
	var out []DayTimes
	for h := now.Hour(); h <= 23; h++ {
		out = append(out, DayTimes{Date: today, Time: fmt.Sprintf("%02d:00", h)})
	}
	for h := 0; h < now.Hour(); h++ {
		out = append(out, DayTimes{Date: tomorrow, Time: fmt.Sprintf("%02d:00", h)})
	}
	return out
}

// DatesFrom returns n consecutive "YYYY-MM-DD" dates starting at the
// given date.  It powers the week availability view.
func DatesFrom(start string, n int) ([]string, error) {
	st, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q", start)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, st.AddDate(0, 0, i).Format(DateLayout))
	}
	return out, nil
}
