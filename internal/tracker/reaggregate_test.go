package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/storage/memory"
	"github.com/tallyhq/tally/internal/types"
)

// racingStore wraps the memory store and, on the first issue-progress write,
// sneaks in a competing update so the wrapped write fails with ErrStaleWrite.
type racingStore struct {
	storage.Storage
	raced atomic.Bool
}

func (r *racingStore) UpdateIssueProgress(ctx context.Context, id string, progress float64, version int64) error {
	if r.raced.CompareAndSwap(false, true) {
		issue, err := r.Storage.GetIssue(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Storage.UpdateIssueProgress(ctx, id, issue.Progress, issue.Version); err != nil {
			return err
		}
	}
	return r.Storage.UpdateIssueProgress(ctx, id, progress, version)
}

func TestReaggregationRetriesPastStaleWrite(t *testing.T) {
	ctx := context.Background()
	racing := &racingStore{Storage: memory.New()}
	svc := New(racing)

	require.NoError(t, svc.CreateProject(ctx, &types.Project{ID: "prj-1", Name: "Race"}))
	require.NoError(t, svc.CreateIssue(ctx, &types.Issue{ID: "iss-1", ProjectID: "prj-1", Title: "Race"}))

	// The create's rollup hits the injected conflict and must converge by
	// re-reading and recomputing.
	require.NoError(t, svc.CreateTask(ctx, &types.Task{
		ID: "tsk-1", IssueID: "iss-1", Title: "Racer", Status: types.StatusCompleted,
	}))
	require.True(t, racing.raced.Load(), "race was never injected")

	issue, err := racing.GetIssue(ctx, "iss-1")
	require.NoError(t, err)
	require.Equal(t, 100.0, issue.Progress)

	project, err := racing.GetProject(ctx, "prj-1")
	require.NoError(t, err)
	require.Equal(t, 100.0, project.Progress)
}

// slowStore delays reads past the service's query timeout.
type slowStore struct {
	storage.Storage
	delay time.Duration
}

func (s *slowStore) ListTasks(ctx context.Context, issueID string) ([]*types.Task, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Storage.ListTasks(ctx, issueID)
}

func TestReaggregationTimeoutKeepsCachedValue(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	svc := New(inner)

	require.NoError(t, svc.CreateProject(ctx, &types.Project{ID: "prj-1", Name: "Slow"}))
	require.NoError(t, svc.CreateIssue(ctx, &types.Issue{ID: "iss-1", ProjectID: "prj-1", Title: "Slow"}))
	require.NoError(t, svc.CreateTask(ctx, &types.Task{
		ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted,
	}))

	// Rebuild the service on a slow store with a tiny timeout. The mutation
	// itself succeeds; only the rollup times out and keeps the old cache.
	slow := &slowStore{Storage: inner, delay: 50 * time.Millisecond}
	slowSvc := New(slow, WithQueryTimeout(time.Millisecond))

	_, err := slowSvc.SetStatus(ctx, "tsk-1", types.StatusIncomplete)
	require.NoError(t, err)

	task, err := inner.GetTask(ctx, "tsk-1")
	require.NoError(t, err)
	require.Equal(t, types.StatusIncomplete, task.Status)

	issue, err := inner.GetIssue(ctx, "iss-1")
	require.NoError(t, err)
	require.Equal(t, 100.0, issue.Progress, "timed-out rollup must keep the cached value")

	// A later mutation with a sane timeout converges the cache.
	_, err = svc.SetStatus(ctx, "tsk-1", types.StatusIncomplete)
	require.NoError(t, err)
	issue, err = inner.GetIssue(ctx, "iss-1")
	require.NoError(t, err)
	require.Equal(t, 0.0, issue.Progress)
}
