package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/grid"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/render"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/slot"
	"github.com/javiermolinar/rota/internal/workhours"
)

func (a *App) gridCmd() *cobra.Command {
	var view, date, resource string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Preview leave on the calendar grid",
		Long: `Draw one row per resource and one column per visible day, filling the
days covered by unavailability. The last row counts the allocations
clashing with leave on each day. Days outside the working week are
shown as dots.

Example:
  rota grid --view month --date 2024-03-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			vp, err := a.resolveView(view, date)
			if err != nil {
				return err
			}

			mapper, err := grid.NewMapper(a.config.GridConfig(vp.view))
			if err != nil {
				return err
			}

			ctx := context.Background()
			summaries, err := a.summarize(ctx, resource, vp.window(), vp.loc)
			if err != nil {
				return err
			}

			resources := []string{resource}
			if resource == "" {
				resources, err = a.repo.ListResources(ctx)
				if err != nil {
					return fmt.Errorf("listing resources: %w", err)
				}
			}

			rowOf := make(map[string]int, len(resources))
			rows := make([]grid.Row, len(resources))
			for i, id := range resources {
				rowOf[id] = i
				rows[i] = grid.Row{Label: id}
			}

			badges := make(map[interval.DayKey]int)
			for _, s := range summaries {
				u := s.Unavailability
				i, ok := rowOf[u.ResourceID]
				if !ok {
					continue
				}
				if vp.view == schedule.GranularityMonth {
					rows[i].Intervals = append(rows[i].Intervals, grid.SplitByMonth(u.Interval())...)
				} else {
					rows[i].Intervals = append(rows[i].Intervals, u.Interval())
				}
				s.ByDay.Each(func(day interval.DayKey, n int) {
					badges[day] += n
				})
			}

			if a.log.Core().Enabled(zap.DebugLevel) {
				for _, p := range mapper.Layout(rows, vp.days) {
					a.log.Debug("leave placement",
						zap.String("resource", rows[p.Row-1].Label),
						zap.Stringer("interval", p.Interval),
						zap.String("grid_area", p.Span.Area()),
					)
				}
			}

			excluded, err := a.excludedDays(vp)
			if err != nil {
				return err
			}

			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "%s\n\nNo resources yet. Use 'rota import' to load records.\n", formatHeader(vp.title()))
				return nil
			}

			fmt.Fprintln(out, r.Calendar(mapper, render.Calendar{
				Title:    vp.title(),
				Days:     vp.days,
				Rows:     rows,
				Badges:   badges,
				Excluded: excluded,
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Calendar view: day, week or month (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "Any day inside the period to show (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVar(&resource, "resource", "", "Only show this resource")
	return cmd
}

// excludedDays returns the visible days hidden by working hours.
func (a *App) excludedDays(vp viewport) (map[interval.DayKey]bool, error) {
	layout, err := a.layout(vp)
	if err != nil {
		return nil, err
	}
	excluded := make(map[interval.DayKey]bool, len(layout.Excluded))
	for _, d := range layout.Excluded {
		excluded[interval.KeyOf(d)] = true
	}
	return excluded, nil
}

// layout filters the visible days through the working hours.
func (a *App) layout(vp viewport) (workhours.Layout, error) {
	wh, err := a.config.WorkingHoursFilter()
	if err != nil {
		return workhours.Layout{}, err
	}
	return workhours.Filter(vp.view, wh, vp.days, a.config.FilterOptions())
}

func (a *App) columnsCmd() *cobra.Command {
	var view, date string

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Show working-hours columns and job cards",
		Long: `Show the time columns of a view after the working-hours filter, the
dates it hides and the pixel geometry of every job card in the period.

Example:
  rota columns --view day --date 2024-03-11`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			vp, err := a.resolveView(view, date)
			if err != nil {
				return err
			}

			layout, err := a.layout(vp)
			if err != nil {
				return err
			}

			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Columns(vp.title(), layout))

			jobs, err := a.repo.ListJobs(context.Background(), vp.window())
			if err != nil {
				return fmt.Errorf("listing jobs: %w", err)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, formatMuted("No jobs in this period."))
				return nil
			}

			p, err := slot.NewPositioner(layout, a.config.SlotOptions())
			if err != nil {
				return err
			}

			cards := make([]render.CardRow, 0, len(jobs))
			for _, job := range jobs {
				card, ok, err := p.Place(job)
				if err != nil {
					return fmt.Errorf("placing job %d: %w", job.ID, err)
				}
				cards = append(cards, render.CardRow{Job: job, Card: card, Visible: ok})
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, r.Cards(fmt.Sprintf("Jobs (%s px per minute)", formatPxPerMinute(p.PxPerMinute())), layout, cards))
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Calendar view: day, week or month (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "Any day inside the period to show (YYYY-MM-DD, default: today)")
	return cmd
}

func formatPxPerMinute(v float64) string {
	return fmt.Sprintf("%.3g", v)
}
