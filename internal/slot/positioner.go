// Package slot positions scheduled jobs as cards on a calendar layout and maps
// drag gestures back to new start dates and times.
package slot

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/workhours"
)

// Errors.
var (
	ErrUnscheduled    = errors.New("job is not scheduled")
	ErrInvalidOptions = errors.New("invalid slot options")
)

const (
	DefaultSlotWidthPx     = 120.0
	DefaultSnapUnitMinutes = 15
)

// Options sets the pixel geometry. Zero fields take the defaults.
type Options struct {
	SlotWidthPx     float64 // width of one time column
	SnapUnitMinutes int     // drags are rounded to multiples of this
}

// DefaultOptions returns the default geometry.
func DefaultOptions() Options {
	return Options{SlotWidthPx: DefaultSlotWidthPx, SnapUnitMinutes: DefaultSnapUnitMinutes}
}

func (o Options) withDefaults() Options {
	if o.SlotWidthPx == 0 {
		o.SlotWidthPx = DefaultSlotWidthPx
	}
	if o.SnapUnitMinutes == 0 {
		o.SnapUnitMinutes = DefaultSnapUnitMinutes
	}
	return o
}

// Validate checks that widths and snap units are positive.
func (o Options) Validate() error {
	if o.SlotWidthPx <= 0 || math.IsNaN(o.SlotWidthPx) || math.IsInf(o.SlotWidthPx, 0) {
		return fmt.Errorf("%w: slot width must be positive, got %v", ErrInvalidOptions, o.SlotWidthPx)
	}
	if o.SnapUnitMinutes <= 0 {
		return fmt.Errorf("%w: snap unit must be positive, got %d", ErrInvalidOptions, o.SnapUnitMinutes)
	}
	return nil
}

// Card is the rendered geometry of a job.
type Card struct {
	Date   int // index into the layout's visible dates
	Column int // index into the layout's columns
	Offset float64
	Width  float64
}

// Positioner converts between job times and pixels for one layout.
// It holds read-only state and is safe for concurrent use.
type Positioner struct {
	layout workhours.Layout
	opts   Options
}

// NewPositioner creates a positioner for layout.
func NewPositioner(layout workhours.Layout, opts Options) (*Positioner, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if layout.MinutesPerColumn() <= 0 {
		return nil, fmt.Errorf("%w: layout has no minutes per column", ErrInvalidOptions)
	}
	return &Positioner{layout: layout, opts: opts}, nil
}

// Layout returns the layout the positioner was built for.
func (p *Positioner) Layout() workhours.Layout {
	return p.layout
}

// Options returns the effective options.
func (p *Positioner) Options() Options {
	return p.opts
}

// PxPerMinute is the horizontal scale of the layout.
func (p *Positioner) PxPerMinute() float64 {
	return p.opts.SlotWidthPx / float64(p.layout.MinutesPerColumn())
}

// Offset returns the distance in pixels from the left edge of column to the
// job's start.
func (p *Positioner) Offset(job *schedule.Job, column workhours.Column) (float64, error) {
	if !job.IsScheduled() {
		return 0, ErrUnscheduled
	}
	minutes := schedule.MinutesBetween(column.Value, job.Time())
	return float64(minutes) * p.PxPerMinute(), nil
}

// Width returns the card width of job in pixels.
func (p *Positioner) Width(job *schedule.Job) float64 {
	return float64(job.DurationMinutes) * p.PxPerMinute()
}

// Place locates job on the layout. It reports false when the job's date is
// not visible or its start time is outside every column.
func (p *Positioner) Place(job *schedule.Job) (Card, bool, error) {
	if !job.IsScheduled() {
		return Card{}, false, ErrUnscheduled
	}
	date, ok := p.layout.DateIndex(*job.StartDate)
	if !ok {
		return Card{}, false, nil
	}
	col, ok := p.layout.ColumnFor(job.Time())
	if !ok {
		return Card{}, false, nil
	}
	offset, err := p.Offset(job, p.layout.Columns[col])
	if err != nil {
		return Card{}, false, err
	}
	return Card{Date: date, Column: col, Offset: offset, Width: p.Width(job)}, true, nil
}

// SnapMinutes converts a pixel displacement to minutes, rounded to the
// nearest snap unit.
func (p *Positioner) SnapMinutes(dx float64) int {
	snap := float64(p.opts.SnapUnitMinutes)
	minutes := dx / p.PxPerMinute()
	return int(math.Round(minutes/snap)) * p.opts.SnapUnitMinutes
}

// Reschedule returns the job's start after a drag of dx pixels.
func (p *Positioner) Reschedule(job *schedule.Job, dx float64) (time.Time, schedule.TimeOfDay, error) {
	if !job.IsScheduled() {
		return time.Time{}, 0, ErrUnscheduled
	}
	date, tod := p.Shift(*job.StartDate, job.Time(), p.SnapMinutes(dx))
	return date, tod, nil
}

// Shift moves (date, tod) by minutes. In a constrained layout time only
// advances through working hours of working days: running past the end of a
// day continues at the start of the next working day and vice versa.
func (p *Positioner) Shift(date time.Time, tod schedule.TimeOfDay, minutes int) (time.Time, schedule.TimeOfDay) {
	day := dateutil.TruncateToDay(date)
	if minutes == 0 {
		return day, tod
	}
	if !p.layout.Constrained() {
		t := tod.On(day).Add(time.Duration(minutes) * time.Minute)
		return dateutil.TruncateToDay(t), schedule.TimeOfDayOf(t)
	}

	cfg := p.layout.Config
	span := cfg.Minutes()

	// clamp the start into the working window
	offset := schedule.MinutesBetween(cfg.Start, tod)
	if !cfg.IsWorkday(day.Weekday()) {
		day = cfg.NextWorkday(day, 1)
		offset = 0
	}
	offset = min(max(offset, 0), span)

	pos := offset + minutes
	days := floorDiv(pos, span)
	offset = pos - days*span

	return cfg.NextWorkday(day, days), cfg.Start.AddMinutes(offset)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
