package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/debug"
	"github.com/tallyhq/tally/internal/progress"
	"github.com/tallyhq/tally/internal/storage"
)

// maxAggregateRetries bounds the re-read-and-recompute loop when racing
// writers invalidate an aggregate write.
const maxAggregateRetries = 4

// reaggregateIssue refreshes an issue's cached progress from its current
// task set, then rolls up into the owning project.
//
// The read-then-write here is deliberately not transactional across the
// tree: two concurrent task edits under one issue can race, and the loser's
// aggregate may briefly be computed from a stale sibling set. A stale-write
// conflict retries from a fresh read; a timeout leaves the cache at its last
// good value. Either way the next mutation under the issue converges it.
func (s *Service) reaggregateIssue(ctx context.Context, issueID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var projectID string
	op := func() error {
		issue, err := s.store.GetIssue(ctx, issueID)
		if err != nil {
			return backoff.Permanent(err)
		}
		projectID = issue.ProjectID

		tasks, err := s.store.ListTasks(ctx, issueID)
		if err != nil {
			return backoff.Permanent(err)
		}

		s.aggregations.Add(ctx, 1)
		result := progress.Aggregate(taskChildren(tasks), issue.Progress, 0)
		if result.Progress == issue.Progress {
			return nil
		}

		err = s.store.UpdateIssueProgress(ctx, issueID, result.Progress, issue.Version)
		if errors.Is(err, storage.ErrStaleWrite) {
			// Someone moved the issue underneath us; recompute from scratch.
			s.conflicts.Add(ctx, 1)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := s.retryAggregate(ctx, op); err != nil {
		return s.aggregateFailure("issue", issueID, err)
	}
	return s.reaggregateProject(ctx, projectID)
}

// reaggregateProject refreshes a project's cached progress from its current
// issue set.
func (s *Service) reaggregateProject(ctx context.Context, projectID string) error {
	op := func() error {
		project, err := s.store.GetProject(ctx, projectID)
		if err != nil {
			return backoff.Permanent(err)
		}
		issues, err := s.store.ListIssues(ctx, projectID)
		if err != nil {
			return backoff.Permanent(err)
		}

		s.aggregations.Add(ctx, 1)
		result := progress.Aggregate(issueChildren(issues), project.Progress, 0)
		if result.Progress == project.Progress {
			return nil
		}

		err = s.store.UpdateProjectProgress(ctx, projectID, result.Progress, project.Version)
		if errors.Is(err, storage.ErrStaleWrite) {
			s.conflicts.Add(ctx, 1)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := s.retryAggregate(ctx, op); err != nil {
		return s.aggregateFailure("project", projectID, err)
	}
	return nil
}

func (s *Service) retryAggregate(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newAggregateBackOff(), maxAggregateRetries), ctx)
	return backoff.Retry(op, policy)
}

func newAggregateBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

// aggregateFailure decides what an aggregation error means for the caller.
// Timeouts are fail-safe for this derived field: the cache keeps its last
// successfully computed value and the next mutation converges it.
func (s *Service) aggregateFailure(level, id string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		debug.Logf("tracker: %s %s aggregation timed out, keeping cached progress\n", level, id)
		return nil
	}
	return fmt.Errorf("failed to re-aggregate %s %s: %w", level, id, err)
}

// RecomputeAll rebuilds every cached aggregate from authoritative child
// state: every issue from its tasks, then every project from its issues.
// Projects are processed concurrently; the engine itself stays pure and
// per-invocation single-threaded.
func (s *Service) RecomputeAll(ctx context.Context) error {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, project := range projects {
		g.Go(func() error {
			issues, err := s.store.ListIssues(ctx, project.ID)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				if err := s.reaggregateIssue(ctx, issue.ID); err != nil {
					return err
				}
			}
			// Issueless projects still get a pass so a frozen cache is at
			// least re-validated.
			return s.reaggregateProject(ctx, project.ID)
		})
	}
	return g.Wait()
}
