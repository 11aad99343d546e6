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

// CreateProject inserts a new project.
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, progress, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.Name, project.Description, project.Progress,
		project.CreatedAt, project.UpdatedAt, project.Version)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetProject returns the project with the given ID.
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, progress, created_at, updated_at, version
		FROM projects WHERE id = ?
	`, id)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*types.Project, error) {
	var p types.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Progress,
		&p.CreatedAt, &p.UpdatedAt, &p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, progress, created_at, updated_at, version
		FROM projects ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Progress,
			&p.CreatedAt, &p.UpdatedAt, &p.Version); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// UpdateProject replaces the project's mutable fields with a version check.
func (s *Store) UpdateProject(ctx context.Context, project *types.Project) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, progress = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, project.Name, project.Description, project.Progress, now, project.ID, project.Version)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if err := s.checkVersionedUpdate(ctx, res, "projects", project.ID); err != nil {
		return err
	}
	project.UpdatedAt = now
	project.Version++
	return nil
}

// UpdateProjectProgress writes the cached aggregate with a version check.
func (s *Store) UpdateProjectProgress(ctx context.Context, id string, progress float64, version int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET progress = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, progress, time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update project progress: %w", err)
	}
	return s.checkVersionedUpdate(ctx, res, "projects", id)
}

// DeleteProject removes a project; issues and tasks cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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
