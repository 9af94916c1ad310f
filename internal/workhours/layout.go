package workhours

import (
	"fmt"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/schedule"
)

// Column is a time-of-day column of the grid. BoundValue is where the next
// column begins, or the range end for the last column.
type Column struct {
	Value      schedule.TimeOfDay
	BoundValue schedule.TimeOfDay
	Label      string
}

// Minutes returns the column width in minutes.
func (c Column) Minutes() int {
	return schedule.MinutesBetween(c.Value, c.BoundValue)
}

// Contains reports whether t falls in [Value, BoundValue).
func (c Column) Contains(t schedule.TimeOfDay) bool {
	return t >= c.Value && t < c.BoundValue
}

// Layout is the time and date geometry of one calendar view.
type Layout struct {
	View         schedule.Granularity
	Config       Config
	Columns      []Column
	Dates        []time.Time // visible dates, ascending
	Excluded     []time.Time // hidden non-working dates, ascending
	TotalMinutes int
	StepMinutes  int
}

// Filter builds the layout of view over dates (ascending) under cfg.
//
// Day view: one column per step inside the active range, no dates hidden.
// Week and month views: a single column spanning the active range; when cfg is
// enabled, dates on inactive weekdays are hidden.
func Filter(view schedule.Granularity, cfg Config, dates []time.Time, opts Options) (Layout, error) {
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	step := opts.step()
	if step <= 0 {
		return Layout{}, fmt.Errorf("%w: day step must be positive, got %d", ErrInvalidConfig, step)
	}

	start, end := cfg.Bounds()
	layout := Layout{
		View:         view,
		Config:       cfg,
		TotalMinutes: cfg.Minutes(),
	}

	switch view {
	case schedule.GranularityDay:
		layout.StepMinutes = step
		layout.Columns = stepColumns(start, end, step)
		layout.Dates = truncateAll(dates)
	case schedule.GranularityWeek, schedule.GranularityMonth:
		layout.StepMinutes = layout.TotalMinutes
		layout.Columns = []Column{{
			Value:      start,
			BoundValue: end,
			Label:      start.Clock() + "-" + end.Clock(),
		}}
		for _, d := range truncateAll(dates) {
			if cfg.IsWorkday(d.Weekday()) {
				layout.Dates = append(layout.Dates, d)
			} else {
				layout.Excluded = append(layout.Excluded, d)
			}
		}
	default:
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	return layout, nil
}

func stepColumns(start, end schedule.TimeOfDay, step int) []Column {
	var columns []Column
	last := end.Minutes()
	for m := start.Minutes(); m < last; m += step {
		bound := min(m+step, last)
		value := schedule.FromMinutes(m)
		columns = append(columns, Column{
			Value:      value,
			BoundValue: schedule.FromMinutes(bound),
			Label:      value.Clock(),
		})
	}
	return columns
}

func truncateAll(dates []time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, dateutil.TruncateToDay(d))
	}
	return out
}

// Constrained reports whether drags must respect working hours, which is the
// case for enabled week and month views.
func (l Layout) Constrained() bool {
	return l.Config.Enabled && l.View != schedule.GranularityDay
}

// MinutesPerColumn is the step in the day view and the whole active range in
// week and month views.
func (l Layout) MinutesPerColumn() int {
	if l.View == schedule.GranularityDay {
		return l.StepMinutes
	}
	return l.TotalMinutes
}

// ColumnFor returns the index of the column containing t.
func (l Layout) ColumnFor(t schedule.TimeOfDay) (int, bool) {
	for i, c := range l.Columns {
		if c.Contains(t) {
			return i, true
		}
	}
	return 0, false
}

// DateIndex returns the position of date's day among the visible dates.
func (l Layout) DateIndex(date time.Time) (int, bool) {
	key := interval.KeyOf(date)
	for i, d := range l.Dates {
		if interval.KeyOf(d) == key {
			return i, true
		}
	}
	return 0, false
}

// IsExcluded reports whether date's day is hidden by the layout.
func (l Layout) IsExcluded(date time.Time) bool {
	key := interval.KeyOf(date)
	for _, d := range l.Excluded {
		if interval.KeyOf(d) == key {
			return true
		}
	}
	return false
}
