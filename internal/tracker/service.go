// Package tracker is the CRUD service around the progress engine. It owns
// the ordering contract for task mutations: status transition first, then
// progress recalculation, then persistence, then re-aggregation of the
// owning issue and project from the just-written state.
package tracker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tallyhq/tally/internal/progress"
	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/telemetry"
	"github.com/tallyhq/tally/internal/types"
)

// DefaultQueryTimeout bounds the sibling-set reads behind a re-aggregation.
const DefaultQueryTimeout = 10 * time.Second

// DefaultPreviewLimit is how many representative children a summary shows.
const DefaultPreviewLimit = 3

// Confirmer resolves a completion confirmation. It is only invoked when a
// checklist edit would auto-complete a task; returning false declines the
// transition and the task lands on in_progress instead.
type Confirmer func(ctx context.Context, task *types.Task) (bool, error)

// ChecklistResult reports what a checklist edit did.
type ChecklistResult struct {
	Task                 *types.Task
	RequiredConfirmation bool
	Confirmed            bool
}

// Service coordinates the progress engine with a storage backend.
type Service struct {
	store        storage.Storage
	queryTimeout time.Duration
	previewLimit int

	aggregations metric.Int64Counter
	conflicts    metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithQueryTimeout overrides the re-aggregation read timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.queryTimeout = d }
}

// WithPreviewLimit overrides the preview size used by summary reads.
func WithPreviewLimit(n int) Option {
	return func(s *Service) { s.previewLimit = n }
}

// New creates a Service on top of the given store.
func New(store storage.Storage, opts ...Option) *Service {
	m := telemetry.Meter("github.com/tallyhq/tally/tracker")
	aggregations, _ := m.Int64Counter("tally.tracker.aggregations",
		metric.WithDescription("Re-aggregation passes executed"),
	)
	conflicts, _ := m.Int64Counter("tally.tracker.conflicts",
		metric.WithDescription("Stale-write conflicts hit while persisting aggregates"),
	)

	s := &Service{
		store:        store,
		queryTimeout: DefaultQueryTimeout,
		previewLimit: DefaultPreviewLimit,
		aggregations: aggregations,
		conflicts:    conflicts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying storage for read paths that bypass the
// engine (show/list commands, comments).
func (s *Service) Store() storage.Storage {
	return s.store
}

// CreateProject validates and stores a new project.
func (s *Service) CreateProject(ctx context.Context, project *types.Project) error {
	if err := project.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	return s.store.CreateProject(ctx, project)
}

// CreateIssue validates and stores a new issue.
func (s *Service) CreateIssue(ctx context.Context, issue *types.Issue) error {
	issue.SetDefaults()
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("invalid issue: %w", err)
	}
	return s.store.CreateIssue(ctx, issue)
}

// CreateTask stores a new task with its progress derived from its initial
// checklist/status, then rolls the new state up the tree.
func (s *Service) CreateTask(ctx context.Context, task *types.Task) error {
	task.SetDefaults()
	task.Progress = progress.Calculate(task.Checklist, task.Status)
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return err
	}
	return s.reaggregateIssue(ctx, task.IssueID)
}

// EditChecklist replaces a task's checklist and runs the full mutation
// pipeline: transition, confirmation if the edit completes every item,
// recalculation, persistence, re-aggregation.
//
// confirm may be nil, which declines any completion (non-interactive
// callers get the safe fallback).
func (s *Service) EditChecklist(ctx context.Context, taskID string, checklist []types.ChecklistItem, confirm Confirmer) (*ChecklistResult, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(checklist) > types.MaxChecklistItems {
		return nil, fmt.Errorf("checklist must have %d items or fewer (got %d)", types.MaxChecklistItems, len(checklist))
	}

	decision := progress.Transition(task.Status, checklist, len(task.Checklist) > 0)

	confirmed := false
	if decision.RequiresConfirmation && confirm != nil {
		confirmed, err = confirm(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
	}

	task.Checklist = checklist
	task.Status = decision.Resolve(confirmed)
	task.Progress = progress.Calculate(checklist, task.Status)

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.reaggregateIssue(ctx, task.IssueID); err != nil {
		return nil, err
	}
	return &ChecklistResult{
		Task:                 task,
		RequiredConfirmation: decision.RequiresConfirmation,
		Confirmed:            confirmed,
	}, nil
}

// SetStatus applies an explicit, user-initiated status change. This is the
// only way out of the sticky statuses; the transitioner is deliberately not
// consulted.
func (s *Service) SetStatus(ctx context.Context, taskID string, status types.Status) (*types.Task, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Status = status
	task.Progress = progress.Calculate(task.Checklist, status)
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.reaggregateIssue(ctx, task.IssueID); err != nil {
		return nil, err
	}
	return task, nil
}

// MarkCompleted is the explicit override flow: completes every checklist
// item and sets status=completed with progress=100 in one write.
func (s *Service) MarkCompleted(ctx context.Context, taskID string) (*types.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for i := range task.Checklist {
		task.Checklist[i].Completed = true
	}
	task.Status = types.StatusCompleted
	task.Progress = 100
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.reaggregateIssue(ctx, task.IssueID); err != nil {
		return nil, err
	}
	return task, nil
}

// SetImportance changes a task's aggregation weight. The task's own
// progress is untouched, but the parent chain still re-aggregates.
func (s *Service) SetImportance(ctx context.Context, taskID string, importance types.Importance) (*types.Task, error) {
	if !importance.IsValid() {
		return nil, fmt.Errorf("invalid importance: %s", importance)
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Importance = importance
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.reaggregateIssue(ctx, task.IssueID); err != nil {
		return nil, err
	}
	return task, nil
}

// SetArchived archives or unarchives a task. Archived tasks drop out of
// their parent's aggregation but remain queryable.
func (s *Service) SetArchived(ctx context.Context, taskID string, archived bool) (*types.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.Archived = archived
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.reaggregateIssue(ctx, task.IssueID); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateDetails edits a task's descriptive fields without touching the
// engine. No re-aggregation: progress inputs are unchanged.
func (s *Service) UpdateDetails(ctx context.Context, task *types.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return s.store.UpdateTask(ctx, task)
}

// DeleteTask removes a task and re-aggregates the issue it belonged to.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	return s.reaggregateIssue(ctx, task.IssueID)
}

// PreviewIssue runs the aggregator over an issue's tasks without persisting
// anything, for live summary panels.
func (s *Service) PreviewIssue(ctx context.Context, issueID string) (progress.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return progress.Result{}, err
	}
	tasks, err := s.store.ListTasks(ctx, issueID)
	if err != nil {
		return progress.Result{}, err
	}
	return progress.Aggregate(taskChildren(tasks), issue.Progress, s.previewLimit), nil
}

// PreviewProject runs the aggregator over a project's issues without
// persisting anything.
func (s *Service) PreviewProject(ctx context.Context, projectID string) (progress.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return progress.Result{}, err
	}
	issues, err := s.store.ListIssues(ctx, projectID)
	if err != nil {
		return progress.Result{}, err
	}
	return progress.Aggregate(issueChildren(issues), project.Progress, s.previewLimit), nil
}

func taskChildren(tasks []*types.Task) []progress.Child {
	children := make([]progress.Child, len(tasks))
	for i, t := range tasks {
		children[i] = progress.TaskChild(t)
	}
	return children
}

func issueChildren(issues []*types.Issue) []progress.Child {
	children := make([]progress.Child, len(issues))
	for i, is := range issues {
		children[i] = progress.IssueChild(is)
	}
	return children
}
