// Package interval provides instant intervals, day partitioning and overlap tests.
//
// All intervals are treated as half-open [Start, End): two intervals that only
// touch at a single instant never overlap, and a day bucket ends at the next
// local midnight.
package interval

import (
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// ErrInvalidInterval is returned when an interval starts after it ends.
var ErrInvalidInterval = errors.New("interval start must not be after end")

// Interval is a span between two instants. Start must not be after End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New creates an Interval, rejecting start > end.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate returns ErrInvalidInterval if the interval starts after it ends.
func (i Interval) Validate() error {
	if i.Start.After(i.End) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidInterval,
			i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
	}
	return nil
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsZero reports whether the interval has zero length.
func (i Interval) IsZero() bool {
	return i.Start.Equal(i.End)
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// In expresses both instants in loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: dateutil.InZone(i.Start, loc), End: dateutil.InZone(i.End, loc)}
}

// String formats the interval for logs and errors.
func (i Interval) String() string {
	return i.Start.Format(time.RFC3339) + ".." + i.End.Format(time.RFC3339)
}

// Overlaps returns true if two intervals overlap.
// Two intervals overlap if: a.Start < b.End AND b.Start < a.End
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ClampToWindow returns the intersection of iv and window. The boolean is
// false when they are disjoint. A zero-length interval inside the window is
// returned unchanged.
func ClampToWindow(iv, window Interval) (Interval, bool) {
	if iv.IsZero() {
		if window.Contains(iv.Start) {
			return iv, true
		}
		return Interval{}, false
	}
	if !Overlaps(iv, window) {
		return Interval{}, false
	}
	clamped := iv
	if window.Start.After(clamped.Start) {
		clamped.Start = window.Start
	}
	if window.End.Before(clamped.End) {
		clamped.End = window.End
	}
	return clamped, true
}

// DayPartition splits iv into one sub-interval per civil day it touches, in
// ascending order. The first and last pieces keep iv's own start and end;
// every other piece spans a whole day up to the next midnight. An interval
// ending exactly at midnight does not yield an empty piece for that day.
// A zero-length interval yields itself.
func DayPartition(iv Interval) []Interval {
	if !iv.Start.Before(iv.End) {
		return []Interval{iv}
	}

	var parts []Interval
	cursor := iv.Start
	for cursor.Before(iv.End) {
		next := dateutil.StartOfNextDay(cursor)
		if !next.Before(iv.End) {
			next = iv.End
		}
		parts = append(parts, Interval{Start: cursor, End: next})
		cursor = next
	}
	return parts
}
