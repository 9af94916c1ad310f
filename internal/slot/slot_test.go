package slot

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/workhours"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func job(id int64, date time.Time, start schedule.TimeOfDay, minutes int) *schedule.Job {
	return &schedule.Job{ID: id, Title: "job", StartDate: &date, StartTime: &start, DurationMinutes: minutes}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

var officeHours = workhours.Config{
	Enabled:  true,
	Start:    900,
	End:      1700,
	Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
}

func positioner(t *testing.T, view schedule.Granularity, cfg workhours.Config, opts Options) *Positioner {
	t.Helper()
	// Monday 2024-03-11 .. Sunday 2024-03-17
	dates := dateutil.DaysBetween(day(11), day(17))
	if view == schedule.GranularityDay {
		dates = []time.Time{day(13)}
	}
	layout, err := workhours.Filter(view, cfg, dates, workhours.DefaultOptions())
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	p, err := NewPositioner(layout, opts)
	if err != nil {
		t.Fatalf("NewPositioner failed: %v", err)
	}
	return p
}

func TestOffsetAndWidth(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, DefaultOptions())
	if !approx(p.PxPerMinute(), 2) {
		t.Errorf("PxPerMinute() = %v, want 2", p.PxPerMinute())
	}

	j := job(1, day(13), 1030, 90)
	offset, err := p.Offset(j, p.Layout().Columns[1])
	if err != nil {
		t.Fatalf("Offset failed: %v", err)
	}
	if !approx(offset, 60) || !approx(p.Width(j), 180) {
		t.Errorf("offset %v, width %v, want 60 and 180", offset, p.Width(j))
	}

	card, ok, err := p.Place(j)
	if err != nil || !ok {
		t.Fatalf("Place() = %v, %v", ok, err)
	}
	if want := (Card{Date: 0, Column: 1, Offset: 60, Width: 180}); card != want {
		t.Errorf("Place() = %+v, want %+v", card, want)
	}
}

func TestOffsetAndWidth_WeekView(t *testing.T) {
	p := positioner(t, schedule.GranularityWeek, officeHours, DefaultOptions())
	// one column covers 480 working minutes
	if !approx(p.PxPerMinute(), 0.25) {
		t.Errorf("PxPerMinute() = %v, want 0.25", p.PxPerMinute())
	}

	card, ok, err := p.Place(job(1, day(14), 1300, 120))
	if err != nil || !ok {
		t.Fatalf("Place() = %v, %v", ok, err)
	}
	if card.Date != 3 || card.Column != 0 || !approx(card.Offset, 60) || !approx(card.Width, 30) {
		t.Errorf("Place() = %+v, want Thursday column 0 at 60px, 30px wide", card)
	}
}

func TestPlace_NotVisible(t *testing.T) {
	p := positioner(t, schedule.GranularityWeek, officeHours, DefaultOptions())

	if _, ok, err := p.Place(job(1, day(16), 1000, 60)); err != nil || ok {
		t.Errorf("saturday job: visible %v, err %v", ok, err)
	}
	if _, ok, err := p.Place(job(1, day(12), 1800, 60)); err != nil || ok {
		t.Errorf("job after working hours: visible %v, err %v", ok, err)
	}
	if _, _, err := p.Place(&schedule.Job{ID: 1, Title: "later"}); !errors.Is(err, ErrUnscheduled) {
		t.Errorf("expected ErrUnscheduled, got %v", err)
	}
}

func TestSnapMinutes(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, Options{SlotWidthPx: 120, SnapUnitMinutes: 30})

	tests := []struct {
		name string
		dx   float64
		want int
	}{
		{"65 minutes forward", 130, 60},
		{"65 minutes back", -130, -60},
		{"below half a unit", 20, 0},
		{"exact unit", 60, 30},
		{"just over half a unit", 32, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.SnapMinutes(tt.dx); got != tt.want {
				t.Errorf("SnapMinutes(%v) = %d, want %d", tt.dx, got, tt.want)
			}
		})
	}
}

func TestReschedule_Unconstrained(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, DefaultOptions())

	date, tod, err := p.Reschedule(job(1, day(13), 2330, 30), 120)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !date.Equal(day(14)) || tod != 30 {
		t.Errorf("got %v %v, want 2024-03-14 00:30", date, tod)
	}

	date, tod, err = p.Reschedule(job(1, day(13), 1000, 30), -30)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !date.Equal(day(13)) || tod != 945 {
		t.Errorf("got %v %v, want 2024-03-13 09:45", date, tod)
	}

	if _, _, err := p.Reschedule(&schedule.Job{ID: 2}, 30); !errors.Is(err, ErrUnscheduled) {
		t.Errorf("expected ErrUnscheduled, got %v", err)
	}
}

func TestReschedule_DisabledWeekViewIsPlainAddition(t *testing.T) {
	cfg := officeHours
	cfg.Enabled = false
	p := positioner(t, schedule.GranularityWeek, cfg, Options{SlotWidthPx: 144, SnapUnitMinutes: 15})

	// 0.1 px per minute
	date, tod, err := p.Reschedule(job(1, day(15), 2300, 60), 12)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !date.Equal(day(16)) || tod != 100 {
		t.Errorf("got %v %v, want 2024-03-16 01:00", date, tod)
	}
}

func TestReschedule_WorkingHoursWrap(t *testing.T) {
	p := positioner(t, schedule.GranularityWeek, officeHours, DefaultOptions())

	tests := []struct {
		name     string
		date     time.Time
		start    schedule.TimeOfDay
		dx       float64
		wantDate time.Time
		wantTime schedule.TimeOfDay
	}{
		{"within the day", day(13), 1000, 15, day(13), 1100},
		{"friday past end lands on monday", day(15), 1600, 30, day(18), 1000},
		{"monday before start lands on friday", day(18), 930, -15, day(15), 1630},
		{"two whole working days", day(11), 900, 240, day(13), 900},
		{"exactly at end rolls to next start", day(13), 1600, 15, day(14), 900},
		{"start before hours is clamped", day(13), 700, 7.5, day(13), 930},
		{"weekend start moves to next working day", day(16), 1000, 15, day(18), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, tod, err := p.Reschedule(job(1, tt.date, tt.start, 60), tt.dx)
			if err != nil {
				t.Fatalf("Reschedule failed: %v", err)
			}
			if !date.Equal(tt.wantDate) || tod != tt.wantTime {
				t.Errorf("got %v %v, want %v %v", date, tod, tt.wantDate, tt.wantTime)
			}
			if !officeHours.IsWorkday(date.Weekday()) {
				t.Errorf("%v is not a working day", date)
			}
			if tod < officeHours.Start || tod >= officeHours.End {
				t.Errorf("%v is outside working hours", tod)
			}
		})
	}
}

func TestReschedule_ZeroDragKeepsPosition(t *testing.T) {
	p := positioner(t, schedule.GranularityWeek, officeHours, DefaultOptions())

	date, tod, err := p.Reschedule(job(1, day(16), 700, 60), 1)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !date.Equal(day(16)) || tod != 700 {
		t.Errorf("got %v %v, want the original 2024-03-16 07:00", date, tod)
	}
}

func TestShift_SkippedMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	p := positioner(t, schedule.GranularityDay, officeHours, DefaultOptions())

	// 23:30 -04 plus an hour is 01:30 -03 on the 8th
	date, tod := p.Shift(time.Date(2024, 9, 7, 0, 0, 0, 0, loc), 2330, 60)
	if date.Day() != 8 || tod != 130 {
		t.Errorf("got %v %v, want 2024-09-08 01:30", date, tod)
	}
	if want := time.Date(2024, 9, 8, 4, 0, 0, 0, time.UTC); !date.Equal(want) {
		t.Errorf("date = %v, want the first instant of the 8th %v", date, want)
	}
}

func TestNewPositioner_Errors(t *testing.T) {
	layout, err := workhours.Filter(schedule.GranularityDay, officeHours, nil, workhours.DefaultOptions())
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	tests := []struct {
		name   string
		layout workhours.Layout
		opts   Options
	}{
		{"negative width", layout, Options{SlotWidthPx: -1}},
		{"negative snap", layout, Options{SnapUnitMinutes: -5}},
		{"empty layout", workhours.Layout{}, DefaultOptions()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPositioner(tt.layout, tt.opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}

	p, err := NewPositioner(layout, Options{})
	if err != nil {
		t.Fatalf("NewPositioner failed: %v", err)
	}
	if p.Options() != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", p.Options())
	}
}

func TestDrag_Lifecycle(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, Options{SlotWidthPx: 120, SnapUnitMinutes: 30})
	d := p.NewDrag()
	if d.State() != DragIdle {
		t.Fatalf("new drag is %s", d.State())
	}

	if _, _, err := d.Release(); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Release() on idle: %v", err)
	}
	if err := d.Move(10); !errors.Is(err, ErrDragState) {
		t.Errorf("Move() on idle: %v", err)
	}

	j := job(7, day(13), 1000, 60)
	if err := d.Start(j); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if d.State() != DragDragging {
		t.Errorf("state = %s, want dragging", d.State())
	}
	if err := d.Start(j); !errors.Is(err, ErrAlreadyDragging) {
		t.Errorf("second Start(): %v", err)
	}

	// a few pixels snap to zero and report nothing
	if err := d.Move(5); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, changed, err := d.Release(); err != nil || changed {
		t.Errorf("Release() = %v, %v, want no change", changed, err)
	}
	if d.State() != DragIdle {
		t.Errorf("state = %s, want idle", d.State())
	}

	if err := d.Start(j); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Move(40); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if err := d.Move(130); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	proposal, changed, err := d.Release()
	if err != nil || !changed {
		t.Fatalf("Release() = %v, %v", changed, err)
	}
	if d.State() != DragProposed || d.Proposal() != proposal {
		t.Errorf("state = %s, stored proposal %+v", d.State(), d.Proposal())
	}

	if proposal.ID == uuid.Nil {
		t.Error("proposal has no ID")
	}
	if proposal.JobID != 7 || proposal.DraggedMinutes != 60 {
		t.Errorf("job %d dragged %d minutes, want 7 and 60", proposal.JobID, proposal.DraggedMinutes)
	}
	if !proposal.Date.Equal(day(13)) || proposal.Time != 1100 {
		t.Errorf("new start %v %v, want 2024-03-13 11:00", proposal.Date, proposal.Time)
	}
	if !proposal.PreviousDate.Equal(day(13)) || proposal.PreviousTime != 1000 {
		t.Errorf("previous start %v %v, want 2024-03-13 10:00", proposal.PreviousDate, proposal.PreviousTime)
	}

	// proposed is terminal for the gesture
	if err := d.Move(10); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Move() after release: %v", err)
	}

	// a new gesture starts over
	if err := d.Start(j); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Cancel()
	if d.State() != DragIdle {
		t.Errorf("state after Cancel = %s", d.State())
	}

	if err := d.Start(&schedule.Job{ID: 8}); !errors.Is(err, ErrUnscheduled) {
		t.Errorf("Start(unscheduled): %v", err)
	}
	if d.State() != DragIdle {
		t.Errorf("state = %s, want idle", d.State())
	}
}

type recordingSink struct {
	saved []Proposal
	err   error
}

func (s *recordingSink) SaveProposal(_ context.Context, p Proposal) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p)
	return nil
}

func TestDrag_Commit(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, DefaultOptions())
	sink := &recordingSink{}
	ctx := context.Background()
	d := p.NewDrag()

	if err := d.Start(job(3, day(13), 1000, 60)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, changed, err := d.Commit(ctx, sink); err != nil || changed {
		t.Errorf("Commit() = %v, %v, want no change", changed, err)
	}
	if len(sink.saved) != 0 {
		t.Errorf("saved %d proposals for a zero drag", len(sink.saved))
	}

	if err := d.Start(job(3, day(13), 1000, 60)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Move(-60); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	proposal, changed, err := d.Commit(ctx, sink)
	if err != nil || !changed {
		t.Fatalf("Commit() = %v, %v", changed, err)
	}
	if len(sink.saved) != 1 || sink.saved[0] != proposal {
		t.Errorf("saved %+v, want [%+v]", sink.saved, proposal)
	}
	if proposal.Time != 930 {
		t.Errorf("new time = %v, want 0930", proposal.Time)
	}
}

func TestDrag_CommitSinkFailureReturnsToIdle(t *testing.T) {
	p := positioner(t, schedule.GranularityDay, officeHours, DefaultOptions())
	sink := &recordingSink{err: errors.New("outbox full")}
	d := p.NewDrag()

	if err := d.Start(job(3, day(13), 1000, 60)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Move(60); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	proposal, changed, err := d.Commit(context.Background(), sink)
	if !errors.Is(err, sink.err) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if changed || proposal.ID != uuid.Nil {
		t.Errorf("Commit() reported change %v with proposal %s", changed, proposal.ID)
	}
	if d.State() != DragIdle {
		t.Errorf("state = %s, want idle", d.State())
	}
	if d.Proposal().ID != uuid.Nil {
		t.Errorf("stored proposal %s after failure", d.Proposal().ID)
	}

	// the drag is usable again
	if err := d.Start(job(3, day(13), 1000, 60)); err != nil {
		t.Errorf("Start after failure: %v", err)
	}
}

func TestDragState_String(t *testing.T) {
	for state, want := range map[DragState]string{DragIdle: "idle", DragDragging: "dragging", DragProposed: "proposed"} {
		if got := state.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
