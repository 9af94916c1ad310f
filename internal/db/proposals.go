package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/slot"
)

// ErrProposalNotFound is returned when applying an unknown or already applied proposal.
var ErrProposalNotFound = errors.New("proposal not found")

// SaveProposal appends a drag proposal to the outbox.
func (s *SQLite) SaveProposal(ctx context.Context, p slot.Proposal) error {
	query := `
		INSERT INTO proposals (
			id, job_id, start_date, start_time, previous_date, previous_time, dragged_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID.String(),
		p.JobID,
		p.Date.Format(dateutil.DateLayout),
		int(p.Time),
		p.PreviousDate.Format(dateutil.DateLayout),
		int(p.PreviousTime),
		p.DraggedMinutes,
	)
	if err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}

	s.log.Debug("saved proposal",
		zap.String("id", p.ID.String()),
		zap.Int64("job", p.JobID),
		zap.Int("minutes", p.DraggedMinutes),
	)
	return nil
}

// ListProposals returns pending proposals in insertion order.
// A zero jobID matches every job.
func (s *SQLite) ListProposals(ctx context.Context, jobID int64) ([]slot.Proposal, error) {
	query := `
		SELECT id, job_id, start_date, start_time, previous_date, previous_time, dragged_minutes
		FROM proposals
		WHERE applied_at IS NULL
		  AND (? = 0 OR job_id = ?)
		ORDER BY rowid
	`

	rows, err := s.db.QueryContext(ctx, query, jobID, jobID)
	if err != nil {
		return nil, fmt.Errorf("querying proposals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var proposals []slot.Proposal
	for rows.Next() {
		var (
			p                  slot.Proposal
			id                 string
			date, previousDate string
			tod, previousTod   int
		)
		if err := rows.Scan(&id, &p.JobID, &date, &tod, &previousDate, &previousTod, &p.DraggedMinutes); err != nil {
			return nil, fmt.Errorf("scanning proposal: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing proposal id: %w", err)
		}
		if p.Date, err = parseDate(date, s.loc); err != nil {
			return nil, err
		}
		if p.PreviousDate, err = parseDate(previousDate, s.loc); err != nil {
			return nil, err
		}
		p.Time = schedule.TimeOfDay(tod)
		p.PreviousTime = schedule.TimeOfDay(previousTod)
		proposals = append(proposals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposals: %w", err)
	}

	return proposals, nil
}

// ApplyProposal atomically moves the job to the proposed start and marks the
// proposal applied.
func (s *SQLite) ApplyProposal(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		jobID int64
		date  string
		tod   int
	)
	query := `SELECT job_id, start_date, start_time FROM proposals WHERE id = ? AND applied_at IS NULL`
	err = tx.QueryRowContext(ctx, query, id.String()).Scan(&jobID, &date, &tod)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrProposalNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("querying proposal: %w", err)
	}

	day, err := parseDate(date, s.loc)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE jobs SET start_date = ?, start_time = ? WHERE id = ?`,
		day.Format(dateutil.DateLayout), tod, jobID,
	)
	if err != nil {
		return fmt.Errorf("updating job start: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %d", schedule.ErrJobNotFound, jobID)
	}

	_, err = tx.ExecContext(ctx, `UPDATE proposals SET applied_at = CURRENT_TIMESTAMP WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("marking proposal applied: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
