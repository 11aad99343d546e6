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

// AddComment appends a comment to a task.
func (s *Store) AddComment(ctx context.Context, taskID, author, text string) (*types.Comment, error) {
	// Verify the task exists up front: foreign keys would catch it, but the
	// caller deserves ErrNotFound rather than a constraint message.
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, taskID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check task existence: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (task_id, author, text, created_at) VALUES (?, ?, ?, ?)
	`, taskID, author, text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read comment id: %w", err)
	}

	return &types.Comment{
		ID:        id,
		TaskID:    taskID,
		Author:    author,
		Text:      text,
		CreatedAt: now,
	}, nil
}

// GetComments returns a task's comments in insertion order.
func (s *Store) GetComments(ctx context.Context, taskID string) ([]*types.Comment, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, taskID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check task existence: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, author, text, created_at FROM comments
		WHERE task_id = ? ORDER BY id
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var out []*types.Comment
	for rows.Next() {
		var c types.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
