// Package memory implements the storage interface with in-process maps.
//
// It backs --memory runs and the test suites; semantics match the sqlite
// backend, including version compare-and-swap on every update.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/types"
)

// Store is an in-memory implementation of storage.Storage.
type Store struct {
	mu sync.RWMutex

	projects map[string]*types.Project
	issues   map[string]*types.Issue
	tasks    map[string]*types.Task
	comments map[string][]*types.Comment
	config   map[string]string

	nextCommentID int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		projects: make(map[string]*types.Project),
		issues:   make(map[string]*types.Issue),
		tasks:    make(map[string]*types.Task),
		comments: make(map[string][]*types.Comment),
		config:   make(map[string]string),
	}
}

var _ storage.Storage = (*Store)(nil)

func copyTask(t *types.Task) *types.Task {
	c := *t
	c.Checklist = append([]types.ChecklistItem(nil), t.Checklist...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.EndDate != nil {
		end := *t.EndDate
		c.EndDate = &end
	}
	return &c
}

func copyIssue(i *types.Issue) *types.Issue {
	c := *i
	if i.EndDate != nil {
		end := *i.EndDate
		c.EndDate = &end
	}
	return &c
}

func copyProject(p *types.Project) *types.Project {
	c := *p
	return &c
}

// CreateProject stores a new project.
func (s *Store) CreateProject(_ context.Context, project *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := copyProject(project)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Version = 1
	s.projects[stored.ID] = stored
	*project = *stored
	return nil
}

// GetProject returns the project with the given ID.
func (s *Store) GetProject(_ context.Context, id string) (*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyProject(p), nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(_ context.Context) ([]*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, copyProject(p))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// UpdateProject replaces the project's fields, checking the version the
// caller read.
func (s *Store) UpdateProject(_ context.Context, project *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[project.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Version != project.Version {
		return storage.ErrStaleWrite
	}

	stored := copyProject(project)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	stored.Version = existing.Version + 1
	s.projects[stored.ID] = stored
	*project = *stored
	return nil
}

// UpdateProjectProgress writes the cached aggregate with a version check.
func (s *Store) UpdateProjectProgress(_ context.Context, id string, progress float64, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[id]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Version != version {
		return storage.ErrStaleWrite
	}
	existing.Progress = progress
	existing.UpdatedAt = time.Now()
	existing.Version++
	return nil
}

// DeleteProject removes a project and its issues and tasks.
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.projects, id)
	for issueID, issue := range s.issues {
		if issue.ProjectID != id {
			continue
		}
		delete(s.issues, issueID)
		for taskID, task := range s.tasks {
			if task.IssueID == issueID {
				delete(s.tasks, taskID)
				delete(s.comments, taskID)
			}
		}
	}
	return nil
}

// CreateIssue stores a new issue.
func (s *Store) CreateIssue(_ context.Context, issue *types.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[issue.ProjectID]; !ok {
		return storage.ErrNotFound
	}

	now := time.Now()
	stored := copyIssue(issue)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Version = 1
	s.issues[stored.ID] = stored
	*issue = *stored
	return nil
}

// GetIssue returns the issue with the given ID.
func (s *Store) GetIssue(_ context.Context, id string) (*types.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.issues[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyIssue(i), nil
}

// ListIssues returns a project's issues ordered by creation time.
func (s *Store) ListIssues(_ context.Context, projectID string) ([]*types.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Issue, 0)
	for _, i := range s.issues {
		if i.ProjectID == projectID {
			out = append(out, copyIssue(i))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// UpdateIssue replaces the issue's fields, checking the version the caller read.
func (s *Store) UpdateIssue(_ context.Context, issue *types.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.issues[issue.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Version != issue.Version {
		return storage.ErrStaleWrite
	}

	stored := copyIssue(issue)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	stored.Version = existing.Version + 1
	s.issues[stored.ID] = stored
	*issue = *stored
	return nil
}

// UpdateIssueProgress writes the cached aggregate with a version check.
func (s *Store) UpdateIssueProgress(_ context.Context, id string, progress float64, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.issues[id]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Version != version {
		return storage.ErrStaleWrite
	}
	existing.Progress = progress
	existing.UpdatedAt = time.Now()
	existing.Version++
	return nil
}

// DeleteIssue removes an issue and its tasks.
func (s *Store) DeleteIssue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.issues, id)
	for taskID, task := range s.tasks {
		if task.IssueID == id {
			delete(s.tasks, taskID)
			delete(s.comments, taskID)
		}
	}
	return nil
}

// CreateTask stores a new task.
func (s *Store) CreateTask(_ context.Context, task *types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[task.IssueID]; !ok {
		return storage.ErrNotFound
	}

	now := time.Now()
	stored := copyTask(task)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Version = 1
	s.tasks[stored.ID] = stored
	*task = *copyTask(stored)
	return nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(_ context.Context, id string) (*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyTask(t), nil
}

// ListTasks returns an issue's tasks ordered by creation time.
func (s *Store) ListTasks(_ context.Context, issueID string) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Task, 0)
	for _, t := range s.tasks {
		if t.IssueID == issueID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// UpdateTask replaces the task's fields, checking the version the caller read.
func (s *Store) UpdateTask(_ context.Context, task *types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if existing.Version != task.Version {
		return storage.ErrStaleWrite
	}

	stored := copyTask(task)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	stored.Version = existing.Version + 1
	s.tasks[stored.ID] = stored
	*task = *copyTask(stored)
	return nil
}

// DeleteTask removes a task and its comments.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	delete(s.comments, id)
	return nil
}

// AddComment appends a comment to a task.
func (s *Store) AddComment(_ context.Context, taskID, author, text string) (*types.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, storage.ErrNotFound
	}
	s.nextCommentID++
	comment := &types.Comment{
		ID:        s.nextCommentID,
		TaskID:    taskID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.comments[taskID] = append(s.comments[taskID], comment)
	c := *comment
	return &c, nil
}

// GetComments returns a task's comments in insertion order.
func (s *Store) GetComments(_ context.Context, taskID string) ([]*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]*types.Comment, 0, len(s.comments[taskID]))
	for _, c := range s.comments[taskID] {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

// SetConfig stores a configuration value.
func (s *Store) SetConfig(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = value
	return nil
}

// GetConfig returns a configuration value, or ErrNotFound.
func (s *Store) GetConfig(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.config[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
