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

const issueColumns = `id, project_id, title, description, status, archived, progress, end_date, created_at, updated_at, version`

// CreateIssue inserts a new issue.
func (s *Store) CreateIssue(ctx context.Context, issue *types.Issue) error {
	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	issue.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, issue.ID, issue.ProjectID, issue.Title, issue.Description, issue.Status,
		issue.Archived, issue.Progress, nullTime(issue.EndDate),
		issue.CreatedAt, issue.UpdatedAt, issue.Version)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

func scanIssueRow(scan func(dest ...interface{}) error) (*types.Issue, error) {
	var i types.Issue
	var archived int
	var endDate sql.NullTime
	err := scan(&i.ID, &i.ProjectID, &i.Title, &i.Description, &i.Status,
		&archived, &i.Progress, &endDate, &i.CreatedAt, &i.UpdatedAt, &i.Version)
	if err != nil {
		return nil, err
	}
	i.Archived = archived != 0
	i.EndDate = timePtr(endDate)
	return &i, nil
}

// GetIssue returns the issue with the given ID.
func (s *Store) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssueRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan issue: %w", err)
	}
	return issue, nil
}

// ListIssues returns a project's issues ordered by creation time.
func (s *Store) ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+issueColumns+` FROM issues WHERE project_id = ? ORDER BY created_at, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var out []*types.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// UpdateIssue replaces the issue's mutable fields with a version check.
func (s *Store) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE issues
		SET title = ?, description = ?, status = ?, archived = ?, progress = ?,
		    end_date = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, issue.Title, issue.Description, issue.Status, issue.Archived, issue.Progress,
		nullTime(issue.EndDate), now, issue.ID, issue.Version)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	if err := s.checkVersionedUpdate(ctx, res, "issues", issue.ID); err != nil {
		return err
	}
	issue.UpdatedAt = now
	issue.Version++
	return nil
}

// UpdateIssueProgress writes the cached aggregate with a version check.
func (s *Store) UpdateIssueProgress(ctx context.Context, id string, progress float64, version int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE issues
		SET progress = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, progress, time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update issue progress: %w", err)
	}
	return s.checkVersionedUpdate(ctx, res, "issues", id)
}

// DeleteIssue removes an issue; tasks cascade.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
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
