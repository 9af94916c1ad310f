package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
)

func (a *App) conflictsCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "conflicts [resource]",
		Short: "Show allocations clashing with leave",
		Long: `List the unavailability records overlapping a date range together with
the number of allocations each one clashes with, the recorded exceptions
and a per-day breakdown. Without a resource every resource is shown.

The range defaults to the current month.

Example:
  rota conflicts alice --from 2024-03-01 --to 2024-03-31`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			var resource string
			if len(args) == 1 {
				resource = args[0]
			}

			loc, err := a.config.Location()
			if err != nil {
				return err
			}
			now := a.now().In(loc)

			start, end := dateutil.MonthRange(now)
			if from != "" || to != "" {
				r, err := dateutil.NewDateRange(from, to, now)
				if err != nil {
					return err
				}
				start, end = r.Start, r.End
			}
			window := interval.Interval{Start: start, End: dateutil.StartOfNextDay(end)}

			summaries, err := a.summarize(context.Background(), resource, window, loc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			who := "all resources"
			if resource != "" {
				who = resource
			}
			header := fmt.Sprintf("CONFLICTS: %s, %s to %s", who, start.Format(dateutil.DateLayout), end.Format(dateutil.DateLayout))
			fmt.Fprintf(out, "\n  %s\n\n", formatHeader(header))

			if len(summaries) == 0 {
				fmt.Fprintln(out, "No unavailability in range.")
				return nil
			}

			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, r.Summaries("", loc, summaries))

			total := 0
			for _, s := range summaries {
				total += s.Total()
			}
			line := fmt.Sprintf("%d conflicts across %d records", total, len(summaries))
			if total > 0 {
				line = formatWarning(line)
			} else {
				line = formatSuccess(line)
			}
			fmt.Fprintf(out, "\n  %s\n", line)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day of the range (YYYY-MM-DD, default: start of month)")
	cmd.Flags().StringVar(&to, "to", "", "Last day of the range (YYYY-MM-DD, default: same as --from)")
	return cmd
}
