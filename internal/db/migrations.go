package db

import "fmt"

// migrate runs database migrations.
// Instants are stored as fixed-width UTC text so range predicates compare
// lexically; job dates are stored as YYYY-MM-DD.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS unavailability (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_id TEXT NOT NULL,
			start_at    TEXT NOT NULL,
			end_at      TEXT NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			CHECK (start_at <= end_at)
		);

		CREATE INDEX IF NOT EXISTS idx_unavailability_resource ON unavailability(resource_id, start_at);

		CREATE TABLE IF NOT EXISTS jobs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			title            TEXT NOT NULL,
			start_date       DATE,
			start_time       INTEGER CHECK (start_time IS NULL OR (start_time >= 0 AND start_time < 2400)),
			duration_minutes INTEGER NOT NULL DEFAULT 0 CHECK (duration_minutes >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_start ON jobs(start_date, start_time);

		CREATE TABLE IF NOT EXISTS allocations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id      INTEGER NOT NULL DEFAULT 0,
			resource_id TEXT NOT NULL,
			start_at    TEXT NOT NULL,
			end_at      TEXT NOT NULL,
			CHECK (start_at <= end_at)
		);

		CREATE INDEX IF NOT EXISTS idx_allocations_resource ON allocations(resource_id, start_at);

		CREATE TABLE IF NOT EXISTS exceptions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			resource_id TEXT NOT NULL,
			start_at    TEXT NOT NULL,
			end_at      TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			CHECK (start_at <= end_at)
		);

		CREATE INDEX IF NOT EXISTS idx_exceptions_resource ON exceptions(resource_id, start_at);

		CREATE TABLE IF NOT EXISTS proposals (
			id              TEXT PRIMARY KEY,
			job_id          INTEGER NOT NULL REFERENCES jobs(id),
			start_date      DATE NOT NULL,
			start_time      INTEGER NOT NULL,
			previous_date   DATE NOT NULL,
			previous_time   INTEGER NOT NULL,
			dragged_minutes INTEGER NOT NULL,
			created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
			applied_at      DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_proposals_job ON proposals(job_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
