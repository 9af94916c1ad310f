// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/interval"
	"github.com/javiermolinar/rota/internal/schedule"
)

// instantLayout is fixed width so stored instants sort lexically.
const instantLayout = "2006-01-02T15:04:05Z"

// SQLite implements schedule.Repository, conflict.ExceptionCounter and
// slot.ProposalSink using SQLite.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
	log *zap.Logger
}

// Option configures the repository.
type Option func(*SQLite)

// WithLocation sets the zone job dates are interpreted in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLite) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLite) {
		if logger != nil {
			s.log = logger
		}
	}
}

// New creates a new SQLite repository and runs migrations.
func New(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, loc: time.UTC, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(instantLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized instant format: %s", s)
	}
	return t, nil
}

// parseDate parses a date string in the formats SQLite might return for a
// DATE column, as the start of that day in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if len(s) > len(dateutil.DateLayout) && s[len(dateutil.DateLayout)] == 'T' {
		s = s[:len(dateutil.DateLayout)]
	}
	t, err := dateutil.ParseDateIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
	}
	return t, nil
}

func validateRecord(resourceID string, iv interval.Interval) error {
	if strings.TrimSpace(resourceID) == "" {
		return schedule.ErrEmptyResource
	}
	return iv.Validate()
}

func insertID(result sql.Result, err error, what string) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", what, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// CreateUnavailability adds an unavailability record.
func (s *SQLite) CreateUnavailability(ctx context.Context, u *schedule.Unavailability) error {
	if err := validateRecord(u.ResourceID, u.Interval()); err != nil {
		return err
	}

	query := `INSERT INTO unavailability (resource_id, start_at, end_at, reason) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, u.ResourceID, formatInstant(u.Start), formatInstant(u.End), u.Reason)
	id, err := insertID(result, err, "unavailability")
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// CreateAllocation adds a job allocation.
func (s *SQLite) CreateAllocation(ctx context.Context, a *schedule.Allocation) error {
	if err := validateRecord(a.ResourceID, a.Interval()); err != nil {
		return err
	}

	query := `INSERT INTO allocations (job_id, resource_id, start_at, end_at) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, a.JobID, a.ResourceID, formatInstant(a.Start), formatInstant(a.End))
	id, err := insertID(result, err, "allocation")
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// CreateException adds a scheduling exception.
func (s *SQLite) CreateException(ctx context.Context, e *schedule.Exception) error {
	if err := validateRecord(e.ResourceID, e.Interval()); err != nil {
		return err
	}

	query := `INSERT INTO exceptions (resource_id, start_at, end_at, note) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, e.ResourceID, formatInstant(e.Start), formatInstant(e.End), e.Note)
	id, err := insertID(result, err, "exception")
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListUnavailability returns records overlapping the window, ordered by start.
// An empty resourceID matches every resource.
func (s *SQLite) ListUnavailability(ctx context.Context, resourceID string, window interval.Interval) ([]*schedule.Unavailability, error) {
	query := `
		SELECT id, resource_id, start_at, end_at, reason
		FROM unavailability
		WHERE (? = '' OR resource_id = ?)
		  AND start_at < ?
		  AND end_at > ?
		ORDER BY start_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, resourceID, resourceID, formatInstant(window.End), formatInstant(window.Start))
	if err != nil {
		return nil, fmt.Errorf("querying unavailability: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*schedule.Unavailability
	for rows.Next() {
		var (
			u          schedule.Unavailability
			start, end string
		)
		if err := rows.Scan(&u.ID, &u.ResourceID, &start, &end, &u.Reason); err != nil {
			return nil, fmt.Errorf("scanning unavailability: %w", err)
		}
		if u.Start, err = parseInstant(start); err != nil {
			return nil, err
		}
		if u.End, err = parseInstant(end); err != nil {
			return nil, err
		}
		records = append(records, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unavailability: %w", err)
	}

	s.log.Debug("listed unavailability", zap.String("resource", resourceID), zap.Int("count", len(records)))
	return records, nil
}

// ListAllocations returns allocations overlapping the window, ordered by start.
// An empty resourceID matches every resource.
func (s *SQLite) ListAllocations(ctx context.Context, resourceID string, window interval.Interval) ([]*schedule.Allocation, error) {
	query := `
		SELECT id, job_id, resource_id, start_at, end_at
		FROM allocations
		WHERE (? = '' OR resource_id = ?)
		  AND start_at < ?
		  AND end_at > ?
		ORDER BY start_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, resourceID, resourceID, formatInstant(window.End), formatInstant(window.Start))
	if err != nil {
		return nil, fmt.Errorf("querying allocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var allocations []*schedule.Allocation
	for rows.Next() {
		var (
			a          schedule.Allocation
			start, end string
		)
		if err := rows.Scan(&a.ID, &a.JobID, &a.ResourceID, &start, &end); err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}
		if a.Start, err = parseInstant(start); err != nil {
			return nil, err
		}
		if a.End, err = parseInstant(end); err != nil {
			return nil, err
		}
		allocations = append(allocations, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocations: %w", err)
	}

	s.log.Debug("listed allocations", zap.String("resource", resourceID), zap.Int("count", len(allocations)))
	return allocations, nil
}

// ListResources returns every resource id with unavailability or allocations, sorted.
func (s *SQLite) ListResources(ctx context.Context) ([]string, error) {
	query := `
		SELECT resource_id FROM unavailability
		UNION
		SELECT resource_id FROM allocations
		ORDER BY 1
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resources []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning resource: %w", err)
		}
		resources = append(resources, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}

	return resources, nil
}

// CountExceptions returns the number of exceptions of resourceID overlapping
// leave. Touching spans do not count.
func (s *SQLite) CountExceptions(ctx context.Context, resourceID string, leave interval.Interval) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM exceptions
		WHERE resource_id = ?
		  AND start_at < ?
		  AND end_at > ?
	`

	var n int
	err := s.db.QueryRowContext(ctx, query, resourceID, formatInstant(leave.End), formatInstant(leave.Start)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting exceptions: %w", err)
	}
	return n, nil
}

// CreateJob adds a job. Unscheduled jobs are allowed.
func (s *SQLite) CreateJob(ctx context.Context, j *schedule.Job) error {
	if strings.TrimSpace(j.Title) == "" {
		return schedule.ErrEmptyTitle
	}
	if j.DurationMinutes < 0 {
		return schedule.ErrNegativeDuration
	}
	if j.StartTime != nil && !j.StartTime.Valid() {
		return fmt.Errorf("%w: %v", schedule.ErrInvalidTimeOfDay, *j.StartTime)
	}

	date, tod := jobColumns(j)
	query := `INSERT INTO jobs (title, start_date, start_time, duration_minutes) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, j.Title, date, tod, j.DurationMinutes)
	id, err := insertID(result, err, "job")
	if err != nil {
		return err
	}
	j.ID = id
	return nil
}

func jobColumns(j *schedule.Job) (date sql.NullString, tod sql.NullInt64) {
	if j.StartDate != nil {
		date = sql.NullString{String: j.StartDate.Format(dateutil.DateLayout), Valid: true}
	}
	if j.StartTime != nil {
		tod = sql.NullInt64{Int64: int64(*j.StartTime), Valid: true}
	}
	return date, tod
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanJob(row scanner) (*schedule.Job, error) {
	var (
		j    schedule.Job
		date sql.NullString
		tod  sql.NullInt64
	)
	if err := row.Scan(&j.ID, &j.Title, &date, &tod, &j.DurationMinutes); err != nil {
		return nil, err
	}
	if date.Valid {
		d, err := parseDate(date.String, s.loc)
		if err != nil {
			return nil, fmt.Errorf("parsing start date: %w", err)
		}
		j.StartDate = &d
	}
	if tod.Valid {
		t := schedule.TimeOfDay(tod.Int64)
		j.StartTime = &t
	}
	return &j, nil
}

// GetJob retrieves a job by ID. Returns schedule.ErrJobNotFound if missing.
func (s *SQLite) GetJob(ctx context.Context, id int64) (*schedule.Job, error) {
	query := `SELECT id, title, start_date, start_time, duration_minutes FROM jobs WHERE id = ?`

	j, err := s.scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", schedule.ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}
	return j, nil
}

// ListJobs returns every scheduled job starting inside the window, ordered by start.
func (s *SQLite) ListJobs(ctx context.Context, window interval.Interval) ([]*schedule.Job, error) {
	query := `
		SELECT id, title, start_date, start_time, duration_minutes
		FROM jobs
		WHERE start_date IS NOT NULL
		  AND start_date >= ?
		  AND start_date <= ?
		ORDER BY start_date, COALESCE(start_time, 0), id
	`

	first := window.Start.In(s.loc).Format(dateutil.DateLayout)
	last := window.End.In(s.loc).Format(dateutil.DateLayout)

	rows, err := s.db.QueryContext(ctx, query, first, last)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*schedule.Job
	for rows.Next() {
		j, err := s.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		if start, ok := j.Start(); ok && window.Contains(start) {
			jobs = append(jobs, j)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}
