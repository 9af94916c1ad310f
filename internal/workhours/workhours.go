// Package workhours derives the visible time columns and dates of a calendar
// view from a working-hours configuration.
package workhours

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
)

// Errors.
var (
	ErrInvalidConfig = errors.New("invalid working hours config")
	ErrUnknownView   = errors.New("unknown calendar view")
)

// DefaultDayStepMinutes is the width of a time column in the day view.
const DefaultDayStepMinutes = 60

// Config restricts the calendar to working hours on active weekdays.
// End is exclusive and may be schedule.EndOfDay.
type Config struct {
	Enabled  bool
	Start    schedule.TimeOfDay
	End      schedule.TimeOfDay
	Weekdays []time.Weekday
}

// Validate checks the time bounds when the config is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !c.Start.Valid() {
		return fmt.Errorf("%w: start %v: %w", ErrInvalidConfig, c.Start, schedule.ErrInvalidTimeOfDay)
	}
	if !c.End.ValidBound() {
		return fmt.Errorf("%w: end %v: %w", ErrInvalidConfig, c.End, schedule.ErrInvalidTimeOfDay)
	}
	if !c.Start.Before(c.End) {
		return fmt.Errorf("%w: start %v must be before end %v", ErrInvalidConfig, c.Start, c.End)
	}
	for _, d := range c.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidConfig, d)
		}
	}
	return nil
}

// Bounds returns the active time range, the whole day when disabled.
func (c Config) Bounds() (start, end schedule.TimeOfDay) {
	if !c.Enabled {
		return schedule.Midnight, schedule.EndOfDay
	}
	return c.Start, c.End
}

// Minutes returns the length of the active time range.
func (c Config) Minutes() int {
	start, end := c.Bounds()
	return schedule.MinutesBetween(start, end)
}

// IsWorkday reports whether d is an active weekday. When the config is
// disabled or lists no weekdays every day is active.
func (c Config) IsWorkday(d time.Weekday) bool {
	if !c.hasWeekdays() {
		return true
	}
	return slices.Contains(c.Weekdays, d)
}

func (c Config) hasWeekdays() bool {
	return c.Enabled && len(c.Weekdays) > 0
}

// NextWorkday steps n working days from date, backwards for negative n, and
// returns the start of the day reached. Without active weekdays it steps
// calendar days.
func (c Config) NextWorkday(date time.Time, n int) time.Time {
	if !c.hasWeekdays() {
		return dateutil.AddDays(date, n)
	}
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	d := dateutil.TruncateToDay(date)
	for n > 0 {
		d = dateutil.AddDays(d, step)
		if c.IsWorkday(d.Weekday()) {
			n--
		}
	}
	return d
}

// Options tunes column generation.
type Options struct {
	DayStepMinutes int // width of day-view columns; 0 means DefaultDayStepMinutes
}

// DefaultOptions returns hourly day-view columns.
func DefaultOptions() Options {
	return Options{DayStepMinutes: DefaultDayStepMinutes}
}

func (o Options) step() int {
	if o.DayStepMinutes == 0 {
		return DefaultDayStepMinutes
	}
	return o.DayStepMinutes
}
