package workhours

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func officeHours() Config {
	return Config{Enabled: true, Start: 900, End: 1700, Weekdays: weekdays}
}

// Monday 2024-03-11 .. Sunday 2024-03-17
func week() []time.Time {
	return dateutil.DaysBetween(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))
}

func mustFilter(t *testing.T, view schedule.Granularity, cfg Config, dates []time.Time, opts Options) Layout {
	t.Helper()
	layout, err := Filter(view, cfg, dates, opts)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	return layout
}

func TestFilter_DayViewRestrictsTimeColumns(t *testing.T) {
	layout := mustFilter(t, schedule.GranularityDay, officeHours(), week()[:1], DefaultOptions())

	if len(layout.Columns) != 8 {
		t.Fatalf("got %d columns, want 8", len(layout.Columns))
	}
	for _, c := range layout.Columns {
		if c.Value < 900 || c.Value >= 1700 {
			t.Errorf("column %v outside working hours", c.Value)
		}
		if c.Minutes() != 60 {
			t.Errorf("column %v spans %d minutes, want 60", c.Value, c.Minutes())
		}
	}
	first, last := layout.Columns[0], layout.Columns[7]
	if first.Value != 900 || first.BoundValue != 1000 || last.BoundValue != 1700 {
		t.Errorf("columns run %v-%v .. %v, want 0900-1000 .. 1700", first.Value, first.BoundValue, last.BoundValue)
	}
	if first.Label != "09:00" {
		t.Errorf("label = %q, want 09:00", first.Label)
	}
	if len(layout.Excluded) != 0 {
		t.Errorf("day view excluded %v", layout.Excluded)
	}
	if layout.TotalMinutes != 480 || layout.MinutesPerColumn() != 60 {
		t.Errorf("total %d, per column %d, want 480 and 60", layout.TotalMinutes, layout.MinutesPerColumn())
	}
	if layout.Constrained() {
		t.Error("day view should not be constrained")
	}
}

func TestFilter_DayViewPartialLastColumn(t *testing.T) {
	cfg := Config{Enabled: true, Start: 930, End: 1145}
	layout := mustFilter(t, schedule.GranularityDay, cfg, nil, Options{DayStepMinutes: 60})

	if len(layout.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(layout.Columns))
	}
	if layout.Columns[1].Value != 1030 || layout.Columns[2].Value != 1130 {
		t.Errorf("columns start at %v and %v, want 1030 and 1130", layout.Columns[1].Value, layout.Columns[2].Value)
	}
	if last := layout.Columns[2]; last.BoundValue != 1145 || last.Minutes() != 15 {
		t.Errorf("last column ends %v after %d minutes, want 1145 and 15", last.BoundValue, last.Minutes())
	}
}

func TestFilter_WeekViewExcludesInactiveWeekdays(t *testing.T) {
	layout := mustFilter(t, schedule.GranularityWeek, officeHours(), week(), DefaultOptions())

	if len(layout.Columns) != 1 {
		t.Fatalf("got %d columns, want 1", len(layout.Columns))
	}
	if c := layout.Columns[0]; c.Value != 900 || c.BoundValue != 1700 || c.Label != "09:00-17:00" {
		t.Errorf("column = %+v", c)
	}

	if len(layout.Dates) != 5 || len(layout.Excluded) != 2 {
		t.Fatalf("dates %d, excluded %d, want 5 and 2", len(layout.Dates), len(layout.Excluded))
	}
	if layout.Excluded[0].Weekday() != time.Saturday || layout.Excluded[1].Weekday() != time.Sunday {
		t.Errorf("excluded %v, want the weekend", layout.Excluded)
	}
	if !layout.IsExcluded(week()[5].Add(10 * time.Hour)) {
		t.Error("Saturday should be excluded")
	}
	if layout.IsExcluded(week()[0]) {
		t.Error("Monday should not be excluded")
	}

	if layout.MinutesPerColumn() != 480 || !layout.Constrained() {
		t.Errorf("per column %d, constrained %v, want 480 and true", layout.MinutesPerColumn(), layout.Constrained())
	}

	idx, ok := layout.DateIndex(week()[4].Add(13 * time.Hour))
	if !ok || idx != 4 {
		t.Errorf("DateIndex(Friday) = %d, %v, want 4", idx, ok)
	}
	if _, ok := layout.DateIndex(week()[6]); ok {
		t.Error("Sunday should have no index")
	}
}

func TestFilter_WeekAcrossSkippedMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	// Mon 09-02 .. Sun 09-08, Sunday has no 00:00
	days := dateutil.DaysBetween(time.Date(2024, 9, 2, 0, 0, 0, 0, loc), time.Date(2024, 9, 8, 12, 0, 0, 0, loc))
	layout := mustFilter(t, schedule.GranularityWeek, officeHours(), days, DefaultOptions())

	if len(layout.Dates) != 5 || len(layout.Excluded) != 2 {
		t.Fatalf("dates %d, excluded %d, want 5 and 2", len(layout.Dates), len(layout.Excluded))
	}
	if sunday := layout.Excluded[1]; sunday.Day() != 8 || sunday.Weekday() != time.Sunday {
		t.Errorf("excluded Sunday = %v", sunday)
	}
	if !layout.IsExcluded(time.Date(2024, 9, 8, 15, 0, 0, 0, loc)) {
		t.Error("Sunday 8th should be excluded")
	}

	next := officeHours().NextWorkday(layout.Dates[4], 1)
	if next.Day() != 9 || next.Weekday() != time.Monday {
		t.Errorf("next workday after Friday 6th = %v, want Monday 9th", next)
	}
}

func TestFilter_Disabled(t *testing.T) {
	cfg := officeHours()
	cfg.Enabled = false

	day := mustFilter(t, schedule.GranularityDay, cfg, week(), DefaultOptions())
	if len(day.Columns) != 24 {
		t.Fatalf("got %d columns, want 24", len(day.Columns))
	}
	if day.Columns[23].BoundValue != schedule.EndOfDay || day.TotalMinutes != schedule.MinutesPerDay {
		t.Errorf("day ends at %v after %d minutes", day.Columns[23].BoundValue, day.TotalMinutes)
	}

	month := mustFilter(t, schedule.GranularityMonth, cfg, week(), DefaultOptions())
	if len(month.Columns) != 1 {
		t.Fatalf("got %d columns, want 1", len(month.Columns))
	}
	if c := month.Columns[0]; c.Value != schedule.Midnight || c.BoundValue != schedule.EndOfDay {
		t.Errorf("month column = %+v, want the whole day", c)
	}
	if len(month.Dates) != 7 || len(month.Excluded) != 0 {
		t.Errorf("dates %d, excluded %d, want 7 and 0", len(month.Dates), len(month.Excluded))
	}
	if month.MinutesPerColumn() != schedule.MinutesPerDay || month.Constrained() {
		t.Errorf("per column %d, constrained %v", month.MinutesPerColumn(), month.Constrained())
	}
}

func TestFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		view schedule.Granularity
		cfg  Config
		opts Options
		want error
	}{
		{"end before start", schedule.GranularityDay, Config{Enabled: true, Start: 1700, End: 900}, DefaultOptions(), ErrInvalidConfig},
		{"invalid minutes", schedule.GranularityDay, Config{Enabled: true, Start: 960, End: 1700}, DefaultOptions(), schedule.ErrInvalidTimeOfDay},
		{"unknown view", "year", officeHours(), DefaultOptions(), ErrUnknownView},
		{"negative step", schedule.GranularityDay, officeHours(), Options{DayStepMinutes: -15}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Filter(tt.view, tt.cfg, nil, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestColumnFor(t *testing.T) {
	layout := mustFilter(t, schedule.GranularityDay, officeHours(), nil, DefaultOptions())

	if idx, ok := layout.ColumnFor(1030); !ok || idx != 1 {
		t.Errorf("ColumnFor(1030) = %d, %v, want 1", idx, ok)
	}
	// a start on the bound belongs to the next column
	if idx, ok := layout.ColumnFor(1000); !ok || idx != 1 {
		t.Errorf("ColumnFor(1000) = %d, %v, want 1", idx, ok)
	}
	if _, ok := layout.ColumnFor(1700); ok {
		t.Error("1700 is past working hours")
	}
	if _, ok := layout.ColumnFor(830); ok {
		t.Error("0830 is before working hours")
	}
}

func TestNextWorkday(t *testing.T) {
	cfg := officeHours()
	friday := week()[4]
	monday := week()[0]

	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"friday to monday", friday, 1, time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)},
		{"monday back to friday", monday, -1, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)},
		{"zero steps", friday, 0, friday},
		{"two steps", friday, 2, time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)},
		{"time of day dropped", friday.Add(15 * time.Hour), 1, time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.NextWorkday(tt.from, tt.n); !got.Equal(tt.want) {
				t.Errorf("NextWorkday(%v, %d) = %v, want %v", tt.from, tt.n, got, tt.want)
			}
		})
	}

	cfg.Enabled = false
	if got := cfg.NextWorkday(friday, 1); !got.Equal(week()[5]) {
		t.Errorf("calendar step = %v, want Saturday", got)
	}
}

func TestIsWorkday(t *testing.T) {
	cfg := officeHours()
	if !cfg.IsWorkday(time.Monday) || cfg.IsWorkday(time.Sunday) {
		t.Error("office hours should cover Monday but not Sunday")
	}

	cfg.Weekdays = nil
	if !cfg.IsWorkday(time.Sunday) {
		t.Error("without weekdays every day is a workday")
	}
}
