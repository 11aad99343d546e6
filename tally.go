// Package tally provides a minimal public API for embedding the progress
// tracker in other Go programs.
//
// It exports only the essential types and constructors needed to drive the
// task lifecycle and rollup engine programmatically; the tally CLI is a thin
// layer over the same surface.
package tally

import (
	"context"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/storage/memory"
	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/internal/tracker"
	"github.com/tallyhq/tally/internal/types"
)

// Core types for working with the tracker.
type (
	Project       = types.Project
	Issue         = types.Issue
	Task          = types.Task
	ChecklistItem = types.ChecklistItem
	Comment       = types.Comment
	Status        = types.Status
	Importance    = types.Importance
)

// Status constants.
const (
	StatusIncomplete = types.StatusIncomplete
	StatusInProgress = types.StatusInProgress
	StatusCompleted  = types.StatusCompleted
	StatusOnHold     = types.StatusOnHold
	StatusDiscarded  = types.StatusDiscarded
)

// Importance constants.
const (
	ImportanceCritical = types.ImportanceCritical
	ImportanceHigh     = types.ImportanceHigh
	ImportanceMedium   = types.ImportanceMedium
	ImportanceLow      = types.ImportanceLow
)

// Storage is the persistence interface behind the tracker.
type Storage = storage.Storage

// Sentinel errors callers branch on.
var (
	ErrNotFound   = storage.ErrNotFound
	ErrStaleWrite = storage.ErrStaleWrite
)

// Service runs the mutation pipeline and rollup engine over a Storage.
type Service = tracker.Service

// Confirmer resolves completion confirmations during checklist edits.
type Confirmer = tracker.Confirmer

// NewSQLiteStorage opens a tally SQLite database for programmatic access.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.New(ctx, dbPath)
}

// NewMemoryStorage returns an ephemeral in-memory store, useful for tests.
func NewMemoryStorage() Storage {
	return memory.New()
}

// NewService builds a tracker service over the given store.
func NewService(store Storage, opts ...tracker.Option) *Service {
	return tracker.New(store, opts...)
}
