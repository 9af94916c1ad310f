// Package grid maps time intervals onto 1-based calendar grid lines.
package grid

import (
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/schedule"
)

// ErrInvalidConfig is returned for negative header sizes or an unknown granularity.
var ErrInvalidConfig = errors.New("invalid grid config")

const (
	// OpenEnd is the column end sentinel meaning "extend to the last line".
	// It matches CSS grid negative line numbering.
	OpenEnd = -1
	// DefaultHeaderRows is the number of header rows above the data rows.
	DefaultHeaderRows = 1
	// DefaultHeaderColumns is the number of header columns left of the day columns.
	DefaultHeaderColumns = 1
)

// Config holds the fixed grid layout.
type Config struct {
	HeaderRows    int
	HeaderColumns int
	Granularity   schedule.Granularity // empty means month
}

// DefaultConfig returns a month grid with one header row and one header column.
func DefaultConfig() Config {
	return Config{
		HeaderRows:    DefaultHeaderRows,
		HeaderColumns: DefaultHeaderColumns,
		Granularity:   schedule.GranularityMonth,
	}
}

// Validate checks header sizes and granularity.
func (c Config) Validate() error {
	if c.HeaderRows < 0 || c.HeaderColumns < 0 {
		return fmt.Errorf("%w: header sizes must not be negative", ErrInvalidConfig)
	}
	switch c.Granularity {
	case "", schedule.GranularityDay, schedule.GranularityWeek, schedule.GranularityMonth:
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, schedule.ErrUnknownGranularity)
	}
}

// Span is a rectangle of grid lines. ColumnEnd may be OpenEnd.
type Span struct {
	RowStart    int
	RowEnd      int
	ColumnStart int
	ColumnEnd   int
}

// IsOpenEnd reports whether the span extends to the last column line.
func (s Span) IsOpenEnd() bool {
	return s.ColumnEnd == OpenEnd
}

// ResolveEnd returns the column end with OpenEnd replaced by lastLine.
func (s Span) ResolveEnd(lastLine int) int {
	if s.IsOpenEnd() {
		return lastLine
	}
	return s.ColumnEnd
}

// Width returns the number of columns covered, resolving OpenEnd against lastLine.
func (s Span) Width(lastLine int) int {
	return s.ResolveEnd(lastLine) - s.ColumnStart
}

// Area returns the CSS grid-area value "row-start / column-start / row-end / column-end".
func (s Span) Area() string {
	return fmt.Sprintf("%d / %d / %d / %d", s.RowStart, s.ColumnStart, s.RowEnd, s.ColumnEnd)
}

// Mapper converts intervals into grid spans.
type Mapper struct {
	cfg Config
}

// NewMapper creates a Mapper after validating cfg.
func NewMapper(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Granularity == "" {
		cfg.Granularity = schedule.GranularityMonth
	}
	return &Mapper{cfg: cfg}, nil
}

// Config returns the mapper configuration.
func (m *Mapper) Config() Config {
	return m.cfg
}

// Map places iv on data row rowIndex (1-based) of a grid showing visibleDays,
// which must be ascending and contiguous. The span is clipped to the first
// data column when iv starts before the window and left open-ended when it
// ends after it. Returns false when nothing of iv is visible.
func (m *Mapper) Map(iv interval.Interval, visibleDays []time.Time, rowIndex int) (Span, bool) {
	if len(visibleDays) == 0 {
		return Span{}, false
	}
	if _, ok := interval.ClampToWindow(iv, m.window(visibleDays)); !ok {
		return Span{}, false
	}

	span := Span{
		RowStart:    m.cfg.HeaderRows + rowIndex,
		RowEnd:      m.cfg.HeaderRows + rowIndex + 1,
		ColumnStart: m.cfg.HeaderColumns + 1,
		ColumnEnd:   OpenEnd,
	}
	if col, ok := m.column(iv.Start, visibleDays); ok {
		span.ColumnStart = m.cfg.HeaderColumns + col
	}
	if col, ok := m.column(iv.End, visibleDays); ok {
		span.ColumnEnd = m.cfg.HeaderColumns + col + 1
	}
	return span, true
}

// DayColumn returns the grid column of day, for header annotations.
func (m *Mapper) DayColumn(day time.Time, visibleDays []time.Time) (int, bool) {
	col, ok := m.column(day, visibleDays)
	if !ok {
		return 0, false
	}
	return m.cfg.HeaderColumns + col, true
}

// LastColumnLine returns the line after the last day column.
func (m *Mapper) LastColumnLine(visibleDays []time.Time) int {
	if m.cfg.Granularity == schedule.GranularityMonth && len(visibleDays) > 0 {
		_, last := dateutil.MonthRange(visibleDays[0])
		return m.cfg.HeaderColumns + last.Day() + 1
	}
	return m.cfg.HeaderColumns + len(visibleDays) + 1
}

// column returns the 1-based day column of t. In month granularity the
// reference period is the month of the first visible day and the column is
// the day of the month; otherwise it is the position in visibleDays.
func (m *Mapper) column(t time.Time, visibleDays []time.Time) (int, bool) {
	if len(visibleDays) == 0 {
		return 0, false
	}
	if m.cfg.Granularity == schedule.GranularityMonth {
		if !dateutil.SameMonth(t, visibleDays[0]) {
			return 0, false
		}
		return t.Day(), true
	}
	offset := int(interval.KeyOf(t) - interval.KeyOf(visibleDays[0]))
	if offset < 0 || offset >= len(visibleDays) {
		return 0, false
	}
	return offset + 1, true
}

// window returns the visible span as an interval.
func (m *Mapper) window(visibleDays []time.Time) interval.Interval {
	first := visibleDays[0]
	if m.cfg.Granularity == schedule.GranularityMonth {
		start, end := dateutil.MonthRange(first)
		return interval.Interval{Start: start, End: dateutil.StartOfNextDay(end)}
	}
	last := visibleDays[len(visibleDays)-1]
	return interval.Interval{
		Start: dateutil.TruncateToDay(first),
		End:   dateutil.StartOfNextDay(last),
	}
}
