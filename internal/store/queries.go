package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertRun records a completed run and returns its generated ID.
func (s *Store) InsertRun(run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO runs (id, identity, since, completed_at, line_count)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID,
		run.Identity,
		run.Since,
		run.CompletedAt.UTC().Format(time.RFC3339),
		run.LineCount,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run for %s: %w", run.Identity, wrapNoTable(err))
	}

	return run.ID, nil
}

// ListRuns returns runs newest first. An empty identity lists every
// identity; limit <= 0 means no limit.
func (s *Store) ListRuns(identity string, limit int) ([]*Run, error) {
	query := `
		SELECT id, identity, since, completed_at, line_count
		FROM runs
		WHERE (? = '' OR identity = ?)
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(query, identity, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", wrapNoTable(err))
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var completedAt string

		if err := rows.Scan(&run.ID, &run.Identity, &run.Since, &completedAt, &run.LineCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		run.CompletedAt, err = time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse completed_at for run %s: %w", run.ID, err)
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Identities returns every identity that has at least one recorded run.
func (s *Store) Identities() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT identity FROM runs ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", wrapNoTable(err))
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}

	return identities, rows.Err()
}
