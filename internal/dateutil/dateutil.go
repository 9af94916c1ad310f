// Package dateutil provides calendar date helpers and zone conversion.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
	ErrUnknownTimezone    = errors.New("unknown timezone")
)

// DateLayout is the calendar date format used across the CLI and storage.
const DateLayout = "2006-01-02"

// DateRange represents a validated, inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a new DateRange with validation.
// startDate can be empty (defaults to the day of now) or in YYYY-MM-DD format.
// endDate can be empty (defaults to startDate) or in YYYY-MM-DD format.
// Both dates are interpreted in the location of now.
func NewDateRange(startDate, endDate string, now time.Time) (*DateRange, error) {
	start, err := ParseDate(startDate, now)
	if err != nil {
		return nil, err
	}

	end := start
	if endDate != "" {
		end, err = ParseDate(endDate, now)
		if err != nil {
			return nil, err
		}
	}

	if end.Before(start) {
		return nil, ErrEndDateBeforeStart
	}

	return &DateRange{Start: start, End: end}, nil
}

// Days returns every date of the range in ascending order.
func (r DateRange) Days() []time.Time {
	return DaysBetween(r.Start, r.End)
}

// ParseDate parses a date string in YYYY-MM-DD format in the location of now.
// If the string is empty or "today", returns the day of now.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "today" {
		return TruncateToDay(now), nil
	}
	return ParseDateIn(s, now.Location())
}

// ParseDateIn parses a YYYY-MM-DD date as the first instant of that date in
// loc. A nil loc means UTC.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	if loc == nil {
		loc = time.UTC
	}
	return StartOfDate(t.Year(), t.Month(), t.Day(), loc), nil
}

// TruncateToDay returns the first instant of t's civil date in t's location.
// That is midnight unless the zone skips midnight on that date.
func TruncateToDay(t time.Time) time.Time {
	return StartOfDate(t.Year(), t.Month(), t.Day(), t.Location())
}

// StartOfNextDay returns the first instant of the day after t, in t's location.
// The result is always after t.
func StartOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	for n := 1; ; n++ {
		if next := StartOfDate(y, m, d+n, t.Location()); next.After(t) {
			return next
		}
	}
}

// AddDays returns the first instant of the civil date n days after t's
// (before for negative n), in t's location.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDate(t.Year(), t.Month(), t.Day()+n, t.Location())
}

// StartOfDate returns the first instant whose civil date in loc is the
// normalized year, month and day. time.Date resolves a skipped midnight to
// the previous day, so the result is moved forward to the zone transition.
func StartOfDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	want := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	for civilDate(t).Before(want) {
		// wall-clock midnight in t's current offset is where the next day begins
		h, m, sec := t.Clock()
		elapsed := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
			time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
		t = t.Add(24*time.Hour - elapsed)
	}
	return t
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same civil date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	t = TruncateToDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday becomes day 7 in ISO week
	}
	monday = AddDays(t, -(weekday - 1))
	sunday = AddDays(monday, 6)
	return monday, sunday
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (first, last time.Time) {
	first = StartOfDate(t.Year(), t.Month(), 1, t.Location())
	last = StartOfDate(t.Year(), t.Month()+1, 0, t.Location())
	return first, last
}

// DaysBetween returns every date from start to end inclusive, each as the
// first instant of its day. Returns nil if end is before start.
func DaysBetween(start, end time.Time) []time.Time {
	start = TruncateToDay(start)
	end = TruncateToDay(end)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for i := 0; ; i++ {
		d := AddDays(start, i)
		if d.After(end) {
			return days
		}
		// a date the zone skipped entirely resolves to the following one
		if len(days) > 0 && !d.After(days[len(days)-1]) {
			continue
		}
		days = append(days, d)
	}
}

// LoadZone resolves an IANA timezone name. Empty means UTC.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// InZone expresses the instant t in loc. A nil loc leaves t unchanged.
func InZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}
