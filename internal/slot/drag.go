package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
)

// Drag errors.
var (
	ErrDragState       = errors.New("invalid drag state")
	ErrNotDragging     = fmt.Errorf("%w: not dragging", ErrDragState)
	ErrAlreadyDragging = fmt.Errorf("%w: already dragging a job", ErrDragState)
)

// DragState is the lifecycle state of a drag gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragProposed
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	case DragProposed:
		return "proposed"
	default:
		return fmt.Sprintf("DragState(%d)", int(s))
	}
}

// Proposal is a reschedule produced by a drag. The positioner never persists
// it; callers validate and save it.
type Proposal struct {
	ID             uuid.UUID
	JobID          int64
	Date           time.Time
	Time           schedule.TimeOfDay
	PreviousDate   time.Time
	PreviousTime   schedule.TimeOfDay
	DraggedMinutes int
}

// ProposalSink receives committed proposals.
type ProposalSink interface {
	SaveProposal(ctx context.Context, p Proposal) error
}

// Drag tracks one drag gesture at a time.
//
//	Idle -> Dragging (Start)
//	Dragging -> Idle (Release without change, Cancel)
//	Dragging -> Proposed (Release with change)
//	Proposed -> Dragging (Start of a new gesture)
type Drag struct {
	positioner *Positioner
	state      DragState
	job        *schedule.Job
	dx         float64
	proposal   Proposal
}

// NewDrag creates an idle drag on p.
func (p *Positioner) NewDrag() *Drag {
	return &Drag{positioner: p}
}

// State returns the current state.
func (d *Drag) State() DragState {
	return d.state
}

// Proposal returns the last proposal. Only meaningful in DragProposed.
func (d *Drag) Proposal() Proposal {
	return d.proposal
}

// Start begins dragging job.
func (d *Drag) Start(job *schedule.Job) error {
	if d.state == DragDragging {
		return ErrAlreadyDragging
	}
	if job == nil || !job.IsScheduled() {
		return ErrUnscheduled
	}
	d.state = DragDragging
	d.job = job
	d.dx = 0
	d.proposal = Proposal{}
	return nil
}

// Move records the displacement in pixels from the gesture origin.
func (d *Drag) Move(dx float64) error {
	if d.state != DragDragging {
		return ErrNotDragging
	}
	d.dx = dx
	return nil
}

// Cancel abandons the gesture.
func (d *Drag) Cancel() {
	d.reset()
}

// Release ends the gesture. It reports true with a proposal only when the
// job's start changed.
func (d *Drag) Release() (Proposal, bool, error) {
	if d.state != DragDragging {
		return Proposal{}, false, ErrNotDragging
	}
	job := d.job

	date, tod, err := d.positioner.Reschedule(job, d.dx)
	if err != nil {
		d.reset()
		return Proposal{}, false, err
	}

	prevDate := dateutil.TruncateToDay(*job.StartDate)
	prevTime := job.Time()
	if dateutil.SameDay(date, prevDate) && tod == prevTime {
		d.reset()
		return Proposal{}, false, nil
	}

	d.proposal = Proposal{
		ID:             uuid.New(),
		JobID:          job.ID,
		Date:           date,
		Time:           tod,
		PreviousDate:   prevDate,
		PreviousTime:   prevTime,
		DraggedMinutes: d.positioner.SnapMinutes(d.dx),
	}
	d.state = DragProposed
	d.job = nil
	return d.proposal, true, nil
}

// Commit releases the gesture and hands a changed proposal to sink. When the
// sink fails the drag returns to idle and nothing is reported as changed.
func (d *Drag) Commit(ctx context.Context, sink ProposalSink) (Proposal, bool, error) {
	p, changed, err := d.Release()
	if err != nil || !changed {
		return p, changed, err
	}
	if err := sink.SaveProposal(ctx, p); err != nil {
		d.reset()
		d.proposal = Proposal{}
		return Proposal{}, false, fmt.Errorf("saving proposal: %w", err)
	}
	return p, true, nil
}

func (d *Drag) reset() {
	d.state = DragIdle
	d.job = nil
	d.dx = 0
}
