package grid

import (
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/schedule"
)

// Row is one data row of the grid, usually one resource.
type Row struct {
	Label     string
	Intervals []interval.Interval
}

// Placement is a visible interval and its span.
type Placement struct {
	Row      int // 1-based data row
	Index    int // index into Row.Intervals
	Interval interval.Interval
	Span     Span
}

// Layout places every visible interval of every row. Row i of rows is data
// row i+1. Placements are ordered by row, then by interval index.
func (m *Mapper) Layout(rows []Row, visibleDays []time.Time) []Placement {
	var placements []Placement
	for r, row := range rows {
		for i, iv := range row.Intervals {
			span, ok := m.Map(iv, visibleDays, r+1)
			if !ok {
				continue
			}
			placements = append(placements, Placement{
				Row:      r + 1,
				Index:    i,
				Interval: iv,
				Span:     span,
			})
		}
	}
	return placements
}

// SplitByMonth cuts iv at every month boundary so each piece can be drawn as a
// separate bar in its own month.
func SplitByMonth(iv interval.Interval) []interval.Interval {
	if !iv.Start.Before(iv.End) {
		return []interval.Interval{iv}
	}
	var parts []interval.Interval
	cursor := iv.Start
	for cursor.Before(iv.End) {
		_, last := dateutil.MonthRange(cursor)
		next := dateutil.StartOfNextDay(last)
		if !next.Before(iv.End) {
			next = iv.End
		}
		parts = append(parts, interval.Interval{Start: cursor, End: next})
		cursor = next
	}
	return parts
}

// MonthDays returns every day of the month containing day.
func MonthDays(day time.Time) []time.Time {
	first, last := dateutil.MonthRange(day)
	return dateutil.DaysBetween(first, last)
}

// WeekDays returns Monday through Sunday of the ISO week containing day.
func WeekDays(day time.Time) []time.Time {
	monday, sunday := dateutil.WeekRange(day)
	return dateutil.DaysBetween(monday, sunday)
}

// VisibleDays returns the visible window for a view containing day.
func VisibleDays(view schedule.Granularity, day time.Time) []time.Time {
	switch view {
	case schedule.GranularityDay:
		return []time.Time{dateutil.TruncateToDay(day)}
	case schedule.GranularityWeek:
		return WeekDays(day)
	default:
		return MonthDays(day)
	}
}
