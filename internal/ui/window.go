package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/conflict"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/grid"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/render"
	"github.com/javiermolinar/rota/internal/schedule"
)

// viewport is the view, zone and visible days of one command run.
type viewport struct {
	view schedule.Granularity
	loc  *time.Location
	days []time.Time
}

// resolveView parses the --view and --date flags. An empty view falls back
// to the configured default and an empty date to today in the configured zone.
func (a *App) resolveView(viewFlag, dateFlag string) (viewport, error) {
	loc, err := a.config.Location()
	if err != nil {
		return viewport{}, err
	}

	view := a.config.View()
	if viewFlag != "" {
		view, err = schedule.ParseGranularity(viewFlag)
		if err != nil {
			return viewport{}, err
		}
	}

	day, err := dateutil.ParseDate(dateFlag, a.now().In(loc))
	if err != nil {
		return viewport{}, err
	}

	return viewport{view: view, loc: loc, days: grid.VisibleDays(view, day)}, nil
}

// window returns the visible days as a half-open interval.
func (v viewport) window() interval.Interval {
	return interval.Interval{
		Start: v.days[0],
		End:   dateutil.StartOfNextDay(v.days[len(v.days)-1]),
	}
}

// title names the visible period.
func (v viewport) title() string {
	first := v.days[0]
	switch v.view {
	case schedule.GranularityDay:
		return first.Format("Monday 2006-01-02")
	case schedule.GranularityWeek:
		return "Week of " + first.Format("Mon 2006-01-02")
	default:
		return first.Format("January 2006")
	}
}

// coverage returns the smallest interval covering every record.
func coverage(records []*schedule.Unavailability) interval.Interval {
	span := records[0].Interval()
	for _, u := range records[1:] {
		if u.Start.Before(span.Start) {
			span.Start = u.Start
		}
		if u.End.After(span.End) {
			span.End = u.End
		}
	}
	return span
}

// summarize loads the leave of resource overlapping window, and the
// allocations it could clash with, and runs the conflict engine. Instants are
// moved to loc first so per-day counts follow local days.
func (a *App) summarize(ctx context.Context, resource string, window interval.Interval, loc *time.Location) ([]conflict.Summary, error) {
	records, err := a.repo.ListUnavailability(ctx, resource, window)
	if err != nil {
		return nil, fmt.Errorf("listing unavailability: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	allocations, err := a.repo.ListAllocations(ctx, resource, coverage(records))
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}

	for _, u := range records {
		u.Start = dateutil.InZone(u.Start, loc)
		u.End = dateutil.InZone(u.End, loc)
	}
	for _, al := range allocations {
		al.Start = dateutil.InZone(al.Start, loc)
		al.End = dateutil.InZone(al.End, loc)
	}

	engine := conflict.NewEngine(a.repo, conflict.WithLogger(a.log))
	summaries, err := engine.SummarizeAll(ctx, records, allocations)
	if err != nil {
		return nil, fmt.Errorf("summarizing conflicts: %w", err)
	}
	return summaries, nil
}

// renderer builds a table renderer writing to the command output.
func (a *App) renderer(cmd *cobra.Command) (*render.Renderer, error) {
	return render.New(cmd.OutOrStdout(), render.Options{
		Theme:      a.config.UI.Theme,
		NoColor:    a.noColor,
		LabelWidth: labelWidth(),
	})
}
