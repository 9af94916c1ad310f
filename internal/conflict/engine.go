package conflict

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/schedule"
)

// ErrInvalidInterval is returned when an unavailability record starts after it ends.
var ErrInvalidInterval = errors.New("invalid unavailability interval")

// ExceptionCounter counts scheduling exceptions recorded for a resource during
// a leave span. The count is added to the allocation conflicts as-is.
type ExceptionCounter interface {
	CountExceptions(ctx context.Context, resourceID string, leave interval.Interval) (int, error)
}

// Summary is the conflict picture of one unavailability record.
type Summary struct {
	Unavailability *schedule.Unavailability
	Conflicts      int // allocations overlapping the leave
	Exceptions     int // external exception count
	ByDay          DayCounts
}

// Total is the figure shown on the warning badge.
func (s Summary) Total() int {
	return s.Conflicts + s.Exceptions
}

// Engine computes conflict summaries with an injected exception counter.
type Engine struct {
	exceptions ExceptionCounter
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// NewEngine creates an Engine. A nil counter means no exceptions are added.
func NewEngine(counter ExceptionCounter, opts ...Option) *Engine {
	e := &Engine{
		exceptions: counter,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summarize computes the conflicts between u and the allocations of the same
// resource. Allocations belonging to other resources are ignored.
func (e *Engine) Summarize(ctx context.Context, u *schedule.Unavailability, allocations []*schedule.Allocation) (Summary, error) {
	leave := u.Interval()
	if err := leave.Validate(); err != nil {
		return Summary{}, fmt.Errorf("%w: record %d: %w", ErrInvalidInterval, u.ID, err)
	}

	spans := make([]interval.Interval, 0, len(allocations))
	for _, a := range allocations {
		if a == nil || a.ResourceID != u.ResourceID {
			continue
		}
		span := a.Interval()
		if err := span.Validate(); err != nil {
			return Summary{}, fmt.Errorf("allocation %d: %w", a.ID, err)
		}
		spans = append(spans, span)
	}

	summary := Summary{
		Unavailability: u,
		Conflicts:      Count(leave, spans),
		ByDay:          ByDay(leave, spans),
	}

	if e.exceptions != nil {
		n, err := e.exceptions.CountExceptions(ctx, u.ResourceID, leave)
		if err != nil {
			return Summary{}, fmt.Errorf("counting exceptions: %w", err)
		}
		summary.Exceptions = n
	}

	e.log.Debug("conflict summary",
		zap.Int64("unavailability_id", u.ID),
		zap.String("resource_id", u.ResourceID),
		zap.Stringer("leave", leave),
		zap.Int("allocations", len(spans)),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("exceptions", summary.Exceptions),
		zap.Int("days", summary.ByDay.Len()),
	)

	return summary, nil
}

// SummarizeAll summarizes every record, preserving input order.
func (e *Engine) SummarizeAll(ctx context.Context, records []*schedule.Unavailability, allocations []*schedule.Allocation) ([]Summary, error) {
	byResource := make(map[string][]*schedule.Allocation)
	for _, a := range allocations {
		if a == nil {
			continue
		}
		byResource[a.ResourceID] = append(byResource[a.ResourceID], a)
	}

	summaries := make([]Summary, 0, len(records))
	for _, u := range records {
		if u == nil {
			continue
		}
		s, err := e.Summarize(ctx, u, byResource[u.ResourceID])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
