package schedule

import (
	"context"

	"github.com/javiermolinar/rota/internal/interval"
)

// Repository is the read side of the data-fetching layer plus the inserts
// used to seed it.
type Repository interface {
	// CreateUnavailability adds an unavailability record.
	CreateUnavailability(ctx context.Context, u *Unavailability) error

	// CreateAllocation adds a job allocation.
	CreateAllocation(ctx context.Context, a *Allocation) error

	// CreateJob adds a job. Unscheduled jobs are allowed.
	CreateJob(ctx context.Context, j *Job) error

	// CreateException adds a scheduling exception.
	CreateException(ctx context.Context, e *Exception) error

	// GetJob retrieves a job by ID. Returns ErrJobNotFound if missing.
	GetJob(ctx context.Context, id int64) (*Job, error)

	// ListJobs returns every scheduled job starting inside the window, ordered by start.
	ListJobs(ctx context.Context, window interval.Interval) ([]*Job, error)

	// ListUnavailability returns records overlapping the window, ordered by start.
	// An empty resourceID matches every resource.
	ListUnavailability(ctx context.Context, resourceID string, window interval.Interval) ([]*Unavailability, error)

	// ListAllocations returns allocations overlapping the window, ordered by start.
	// An empty resourceID matches every resource.
	ListAllocations(ctx context.Context, resourceID string, window interval.Interval) ([]*Allocation, error)

	// ListResources returns every resource id with unavailability or allocations, sorted.
	ListResources(ctx context.Context) ([]string, error)

	// Close releases any resources held by the repository.
	Close() error
}
