package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ResetRunning returns items left running by a crashed daemon to pending so
// the next poll resumes them. It reports how many items were reset.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE run_items SET status = ?, started_at = NULL, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset running items: %w", err)
	}
	return res.RowsAffected()
}

// ClearFinished deletes completed and failed items.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM run_items WHERE status IN (?, ?)`,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished items: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM run_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusRunning:
			health.Running += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// CheckHealth inspects the database file: existence, connectivity, schema
// version, row count and PRAGMA integrity_check. The first failing probe
// stops the sequence and is reported in both the error and health.Error.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return health, nil
	case err != nil:
		return health, fmt.Errorf("stat queue database: %w", err)
	case info.IsDir():
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true
	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	ctx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	probes := []struct {
		name string
		run  func() error
	}{
		{"ping", func() error {
			if err := s.db.PingContext(ctx); err != nil {
				return err
			}
			health.DatabaseReadable = true
			return nil
		}},
		{"schema version", func() (err error) {
			health.SchemaVersion, err = s.readUserVersion(ctx)
			return err
		}},
		{"table lookup", func() error {
			var name string
			err := s.db.QueryRowContext(ctx,
				"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'run_items'").Scan(&name)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			health.TableExists = err == nil
			return err
		}},
		{"row count", func() error {
			if !health.TableExists {
				return nil
			}
			return s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_items").Scan(&health.TotalItems)
		}},
		{"integrity check", func() error {
			var result string
			if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
				return err
			}
			health.IntegrityCheck = strings.EqualFold(result, "ok")
			return nil
		}},
	}
	for _, probe := range probes {
		if err := probe.run(); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("queue database %s: %w", probe.name, err)
		}
	}
	return health, nil
}
