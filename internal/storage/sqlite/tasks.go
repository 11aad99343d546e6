package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/types"
)

const taskColumns = `id, issue_id, title, description, status, importance, checklist, progress, archived, assignee, tags, end_date, created_at, updated_at, version`

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, task *types.Task) error {
	checklist, err := marshalJSON(task.Checklist)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(task.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Version = 1

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.IssueID, task.Title, task.Description, task.Status,
		task.Importance, checklist, task.Progress, task.Archived,
		task.Assignee, tags, nullTime(task.EndDate),
		task.CreatedAt, task.UpdatedAt, task.Version)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func scanTaskRow(scan func(dest ...interface{}) error) (*types.Task, error) {
	var t types.Task
	var archived int
	var checklist, tags string
	var endDate sql.NullTime
	err := scan(&t.ID, &t.IssueID, &t.Title, &t.Description, &t.Status,
		&t.Importance, &checklist, &t.Progress, &archived,
		&t.Assignee, &tags, &endDate, &t.CreatedAt, &t.UpdatedAt, &t.Version)
	if err != nil {
		return nil, err
	}
	t.Archived = archived != 0
	t.EndDate = timePtr(endDate)
	if t.Checklist, err = unmarshalChecklist(checklist); err != nil {
		return nil, err
	}
	if t.Tags, err = unmarshalTags(tags); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTaskRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return task, nil
}

// ListTasks returns an issue's tasks ordered by creation time.
func (s *Store) ListTasks(ctx context.Context, issueID string) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE issue_id = ? ORDER BY created_at, id
	`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		task, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// UpdateTask replaces the task's mutable fields with a version check.
// Status and progress travel together through here so they are never
// persisted out of sync.
func (s *Store) UpdateTask(ctx context.Context, task *types.Task) error {
	checklist, err := marshalJSON(task.Checklist)
	if err != nil {
		return err
	}
	tags, err := marshalJSON(task.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, importance = ?, checklist = ?,
		    progress = ?, archived = ?, assignee = ?, tags = ?, end_date = ?,
		    updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, task.Title, task.Description, task.Status, task.Importance, checklist,
		task.Progress, task.Archived, task.Assignee, tags, nullTime(task.EndDate),
		now, task.ID, task.Version)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if err := s.checkVersionedUpdate(ctx, res, "tasks", task.ID); err != nil {
		return err
	}
	task.UpdatedAt = now
	task.Version++
	return nil
}

// DeleteTask removes a task; comments cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
