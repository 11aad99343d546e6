// Package storage defines the interface for tracker storage backends.
//
// The concrete implementations live in the sqlite and memory sub-packages.
// This package holds the interface and sentinel errors referenced by both
// the implementations and their consumers (internal/tracker, cmd/tally).
package storage

import (
	"context"
	"errors"

	"github.com/tallyhq/tally/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrStaleWrite is returned when an update's version precondition fails:
// the record changed since the caller read it. The caller should reload,
// recompute and resubmit rather than retry the same write blindly.
var ErrStaleWrite = errors.New("stale data, please reload")

// ErrNotInitialized is returned when the database has not been initialized
// (run 'tally init' first).
var ErrNotInitialized = errors.New("database not initialized")

// Storage is the interface satisfied by *sqlite.Store and *memory.Store.
// Consumers depend on this interface rather than on a concrete type so that
// alternative implementations (mocks, telemetry wrappers) can be substituted.
//
// All update methods are compare-and-swap on the record's Version field:
// they fail with ErrStaleWrite when the stored version no longer matches the
// one the caller read, and bump the version on success. The progress-cache
// setters (UpdateIssueProgress, UpdateProjectProgress) follow the same rule
// so racing re-aggregations are detected rather than silently interleaved.
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	UpdateProject(ctx context.Context, project *types.Project) error
	UpdateProjectProgress(ctx context.Context, id string, progress float64, version int64) error
	DeleteProject(ctx context.Context, id string) error

	// Issues
	CreateIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error)
	UpdateIssue(ctx context.Context, issue *types.Issue) error
	UpdateIssueProgress(ctx context.Context, id string, progress float64, version int64) error
	DeleteIssue(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	ListTasks(ctx context.Context, issueID string) ([]*types.Task, error)
	UpdateTask(ctx context.Context, task *types.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Comments
	AddComment(ctx context.Context, taskID, author, text string) (*types.Comment, error)
	GetComments(ctx context.Context, taskID string) ([]*types.Comment, error)

	// Configuration
	SetConfig(ctx context.Context, key, value string) error
	GetConfig(ctx context.Context, key string) (string, error)

	// Lifecycle
	Close() error
}
