package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/slot"
)

func (a *App) dragCmd() *cobra.Command {
	var view string
	var dx float64
	var apply bool

	cmd := &cobra.Command{
		Use:   "drag [job_id]",
		Short: "Drag a job card and record the proposed start",
		Long: `Simulate dragging a job card horizontally by --dx pixels on the view
containing the job. The displacement is snapped to the configured unit
and, when working hours are enabled, wraps across working days.

A changed position is stored as a pending proposal; use --apply to move
the job right away.

Example:
  rota drag 4 --dx 240 --view week`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job ID: %w", err)
			}

			ctx := context.Background()
			job, err := a.repo.GetJob(ctx, id)
			if err != nil {
				return fmt.Errorf("loading job: %w", err)
			}
			if !job.IsScheduled() {
				return fmt.Errorf("job #%d: %w", id, slot.ErrUnscheduled)
			}

			vp, err := a.resolveView(view, job.StartDate.Format(dateutil.DateLayout))
			if err != nil {
				return err
			}

			layout, err := a.layout(vp)
			if err != nil {
				return err
			}
			p, err := slot.NewPositioner(layout, a.config.SlotOptions())
			if err != nil {
				return err
			}

			drag := p.NewDrag()
			if err := drag.Start(job); err != nil {
				return err
			}
			if err := drag.Move(dx); err != nil {
				return err
			}
			proposal, changed, err := drag.Commit(ctx, a.repo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !changed {
				fmt.Fprintln(out, noChangeMessage(dx, p.SnapMinutes(dx)))
				return nil
			}

			printProposal(out, proposal)
			a.log.Info("drag proposal recorded",
				zap.String("proposal", proposal.ID.String()),
				zap.Int64("job", proposal.JobID),
				zap.String("view", string(vp.view)),
				zap.String("from", schedule.FormatTimeOfDayLenient(int(proposal.PreviousTime))),
				zap.String("to", schedule.FormatTimeOfDayLenient(int(proposal.Time))),
			)

			if !apply {
				fmt.Fprintln(out, formatMuted("Run 'rota proposals --apply "+proposal.ID.String()+"' to move the job."))
				return nil
			}
			if err := a.repo.ApplyProposal(ctx, proposal.ID); err != nil {
				return fmt.Errorf("applying proposal: %w", err)
			}
			fmt.Fprintln(out, formatSuccess(fmt.Sprintf("Moved job #%d", proposal.JobID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Calendar view the drag happens in (default from config)")
	cmd.Flags().Float64Var(&dx, "dx", 0, "Horizontal displacement in pixels (negative drags left)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the proposal immediately")
	_ = cmd.MarkFlagRequired("dx")
	return cmd
}

func printProposal(out io.Writer, p slot.Proposal) {
	fmt.Fprintf(out, "Proposal %s: job #%d %s %s -> %s %s (%+d min)\n",
		p.ID,
		p.JobID,
		p.PreviousDate.Format(dateutil.DateLayout),
		p.PreviousTime.Clock(),
		p.Date.Format(dateutil.DateLayout),
		p.Time.Clock(),
		p.DraggedMinutes,
	)
}

func (a *App) proposalsCmd() *cobra.Command {
	var jobID int64
	var applyID string

	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List or apply pending drag proposals",
		Long: `List drag proposals that have not been applied yet, or apply one by ID.

Example:
  rota proposals --job 4
  rota proposals --apply 3f2504e0-4f89-11d3-9a0c-0305e82c3301`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			out := cmd.OutOrStdout()

			if applyID != "" {
				id, err := uuid.Parse(applyID)
				if err != nil {
					return fmt.Errorf("invalid proposal ID: %w", err)
				}
				if err := a.repo.ApplyProposal(ctx, id); err != nil {
					return fmt.Errorf("applying proposal: %w", err)
				}
				fmt.Fprintln(out, formatSuccess("Applied proposal "+id.String()))
				return nil
			}

			proposals, err := a.repo.ListProposals(ctx, jobID)
			if err != nil {
				return fmt.Errorf("listing proposals: %w", err)
			}
			if len(proposals) == 0 {
				fmt.Fprintln(out, "No pending proposals.")
				return nil
			}

			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, r.Proposals("", proposals))
			return nil
		},
	}

	cmd.Flags().Int64Var(&jobID, "job", 0, "Only show proposals for this job")
	cmd.Flags().StringVar(&applyID, "apply", "", "Apply the proposal with this ID")
	return cmd
}

// noChangeMessage explains a drag that left the job where it was.
func noChangeMessage(dx float64, minutes int) string {
	if minutes == 0 {
		return fmt.Sprintf("No change: %gpx snaps to 0 minutes", dx)
	}
	return fmt.Sprintf("No change: %gpx (%+d min) lands on the current start", dx, minutes)
}
