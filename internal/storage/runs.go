package storage

import (
	"github.com/google/uuid"

	"catalog/internal/domain"
)

// RunStore implements persistence for ingestion run logs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

var _ domain.RunLogStore = (*RunStore)(nil)

// CreateRun records a finished run. An empty ID is filled in.
func (s *RunStore) CreateRun(r *domain.RunLog) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO import_runs (id, file_path, dry_run, started_at, finished_at, status,
		 processed, malformed, recovered, unrecoverable, rule_excluded, inserted, duplicate, insert_failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FilePath, r.DryRun, r.StartedAt, r.FinishedAt, r.Status,
		r.Processed, r.Malformed, r.Recovered, r.Unrecoverable, r.RuleExcluded,
		r.Inserted, r.Duplicate, r.InsertFailed, r.Error,
	)
	return err
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(limit int) ([]domain.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.conn.Query(
		`SELECT id, file_path, dry_run, started_at, finished_at, status,
		 processed, malformed, recovered, unrecoverable, rule_excluded, inserted, duplicate, insert_failed, error
		 FROM import_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunLog
	for rows.Next() {
		var r domain.RunLog
		if err := rows.Scan(
			&r.ID, &r.FilePath, &r.DryRun, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.Processed, &r.Malformed, &r.Recovered, &r.Unrecoverable, &r.RuleExcluded,
			&r.Inserted, &r.Duplicate, &r.InsertFailed, &r.Error,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
