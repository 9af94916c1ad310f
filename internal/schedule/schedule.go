// Package schedule defines the domain records consumed by the calendar engine.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
)

// Validation errors.
var (
	ErrInvalidTimeOfDay   = errors.New("time of day must be a valid HHMM value")
	ErrUnknownGranularity = errors.New("granularity must be 'day', 'week' or 'month'")
	ErrEmptyResource      = errors.New("resource id cannot be empty")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrNegativeDuration   = errors.New("duration cannot be negative")
)

// Domain errors.
var (
	ErrJobNotFound = errors.New("job not found")
)

// Granularity is the calendar view granularity.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity parses a view name, case-insensitively.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// Unavailability is a span during which a resource cannot work.
type Unavailability struct {
	ID         int64
	ResourceID string
	Start      time.Time
	End        time.Time
	Reason     string
}

// Interval returns the unavailability span.
func (u *Unavailability) Interval() interval.Interval {
	return interval.Interval{Start: u.Start, End: u.End}
}

// Allocation assigns a resource to a job for a span of time.
type Allocation struct {
	ID         int64
	JobID      int64
	ResourceID string
	Start      time.Time
	End        time.Time
}

// Interval returns the allocation span.
func (a *Allocation) Interval() interval.Interval {
	return interval.Interval{Start: a.Start, End: a.End}
}

// Exception is a manually recorded scheduling exception for a resource.
// Exceptions are counted on top of allocation conflicts.
type Exception struct {
	ID         int64
	ResourceID string
	Start      time.Time
	End        time.Time
	Note       string
}

// Interval returns the exception span.
func (e *Exception) Interval() interval.Interval {
	return interval.Interval{Start: e.Start, End: e.End}
}

// Job is a unit of work that can be placed on the calendar.
// A nil StartDate means the job is not scheduled yet.
type Job struct {
	ID              int64
	Title           string
	StartDate       *time.Time
	StartTime       *TimeOfDay
	DurationMinutes int
}

// NewJob creates a scheduled job with validation.
// date is YYYY-MM-DD (empty defaults to the day of now) and start is HHMM or HH:MM.
func NewJob(title, date, start string, durationMinutes int, now time.Time) (*Job, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if durationMinutes < 0 {
		return nil, ErrNegativeDuration
	}

	day, err := dateutil.ParseDate(date, now)
	if err != nil {
		return nil, err
	}

	tod, err := ParseTimeOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}

	return &Job{
		Title:           title,
		StartDate:       &day,
		StartTime:       &tod,
		DurationMinutes: durationMinutes,
	}, nil
}

// IsScheduled returns true if the job has a start date.
func (j *Job) IsScheduled() bool {
	return j.StartDate != nil
}

// Time returns the job's start time, defaulting to midnight when only a date is set.
func (j *Job) Time() TimeOfDay {
	if j.StartTime == nil {
		return Midnight
	}
	return *j.StartTime
}

// Start returns the start instant of a scheduled job.
func (j *Job) Start() (time.Time, bool) {
	if !j.IsScheduled() {
		return time.Time{}, false
	}
	return j.Time().On(*j.StartDate), true
}

// Interval returns the span covered by a scheduled job.
func (j *Job) Interval() (interval.Interval, bool) {
	start, ok := j.Start()
	if !ok {
		return interval.Interval{}, false
	}
	end := start.Add(time.Duration(j.DurationMinutes) * time.Minute)
	return interval.Interval{Start: start, End: end}, true
}
