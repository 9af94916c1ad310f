package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time encoded as HHMM (0930 is half past nine).
// Valid values are 0000..2359 with minutes below 60. EndOfDay (2400) is
// accepted as an exclusive upper bound.
type TimeOfDay int

const (
	// Midnight is the first minute of the day.
	Midnight TimeOfDay = 0
	// EndOfDay is the exclusive bound after the last minute of the day.
	EndOfDay TimeOfDay = 2400
	// MinutesPerDay is 24 hours * 60 minutes.
	MinutesPerDay = 1440
)

// ParseTimeOfDay parses "HHMM" or "HH:MM". It fails on anything that is not a
// valid time of day, including "2400".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := parseHHMM(s)
	if err != nil {
		return 0, err
	}
	if t == EndOfDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

// ParseBound parses like ParseTimeOfDay but also accepts "2400" so it can be
// used for exclusive end-of-range values.
func ParseBound(s string) (TimeOfDay, error) {
	return parseHHMM(s)
}

func parseHHMM(s string) (TimeOfDay, error) {
	raw := strings.TrimSpace(s)
	digits := strings.Replace(raw, ":", "", 1)
	if len(digits) != 4 || (len(raw) == 5 && raw[2] != ':') {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	t := TimeOfDay(v)
	if !t.ValidBound() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay(hour*100 + minute)
	if hour < 0 || minute < 0 || minute > 59 || !t.Valid() {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return t, nil
}

// FromMinutes converts minutes since midnight to a TimeOfDay.
// Values are clamped to [0, 1440]; 1440 maps to EndOfDay.
func FromMinutes(m int) TimeOfDay {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		return EndOfDay
	}
	return TimeOfDay((m/60)*100 + m%60)
}

// TimeOfDayOf returns the wall-clock time of t, truncated to the minute.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*100 + t.Minute())
}

// Valid reports whether t is a time of day in 0000..2359.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < EndOfDay && int(t)%100 < 60
}

// ValidBound reports whether t is valid or exactly EndOfDay.
func (t TimeOfDay) ValidBound() bool {
	return t == EndOfDay || t.Valid()
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 100 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 100 }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour()*60 + t.Minute()
}

// Before reports whether t is earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

// AddMinutes shifts t by m minutes, clamped to the day (see FromMinutes).
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	return FromMinutes(t.Minutes() + m)
}

// On combines t with the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

// String returns the zero-padded 4-digit form, e.g. "0930".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%04d", int(t))
}

// Clock returns the "HH:MM" form, e.g. "09:30".
func (t TimeOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MinutesBetween returns the signed number of minutes from a to b.
func MinutesBetween(a, b TimeOfDay) int {
	return b.Minutes() - a.Minutes()
}

// FormatTimeOfDayLenient formats v as a 4-digit time of day, falling back to
// "0000" for invalid values. Only meant for display labels.
func FormatTimeOfDayLenient(v int) string {
	t := TimeOfDay(v)
	if !t.ValidBound() {
		return Midnight.String()
	}
	return t.String()
}
