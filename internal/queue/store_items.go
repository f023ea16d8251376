package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lingosub/internal/services"
)

// Enqueue adds a pending run for projectID. A project with a pending or
// running item is refused with a concurrency error.
func (s *Store) Enqueue(ctx context.Context, projectID string) (*Item, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("project id required")
	}
	active, err := s.ActiveForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, activeRunError(projectID, active)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO run_items (project_id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		projectID,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, activeRunError(projectID, nil)
		}
		return nil, fmt.Errorf("insert run item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func activeRunError(projectID string, active *Item) error {
	msg := fmt.Sprintf("project %s already has an active run", projectID)
	if active != nil {
		msg = fmt.Sprintf("project %s already has a %s run (#%d)", projectID, active.Status, active.ID)
	}
	return services.Wrap(services.ErrConcurrency, "", "enqueue run", msg, nil)
}

// GetByID fetches a run item by identifier. A missing item returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM run_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ActiveForProject returns the pending or running item of projectID, if any.
func (s *Store) ActiveForProject(ctx context.Context, projectID string) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM run_items WHERE project_id = ? AND status IN (?, ?) ORDER BY id LIMIT 1`,
		projectID,
		StatusPending,
		StatusRunning,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active item: %w", err)
	}
	return item, nil
}

// NextPending returns the oldest pending item, or nil when the queue is idle.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM run_items WHERE status = ? ORDER BY id LIMIT 1`,
		StatusPending,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return item, nil
}

// MarkRunning claims a pending item. It reports false when the item was no
// longer pending.
func (s *Store) MarkRunning(ctx context.Context, item *Item) (bool, error) {
	if item == nil {
		return false, errors.New("item is nil")
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE run_items SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusRunning,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		item.ID,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark running: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark running rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	item.Status = StatusRunning
	item.StartedAt = &now
	item.UpdatedAt = now
	return true, nil
}

// Update persists changes to an existing run item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE run_items
         SET status = ?, stage = ?, error_message = ?, failed_languages = ?,
             updated_at = ?, started_at = ?, finished_at = ?
         WHERE id = ?`,
		item.Status,
		nullableString(item.Stage),
		nullableString(item.ErrorMessage),
		nullableLanguages(item.FailedLanguages),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(item.StartedAt),
		nullableTime(item.FinishedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns items matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Item, error) {
	var (
		clauses []string
		args    []any
	)
	if id := strings.TrimSpace(filter.ProjectID); id != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, id)
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+makePlaceholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	query := `SELECT ` + itemColumns + ` FROM run_items`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}
