package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/storage/memory"
	"github.com/tallyhq/tally/internal/types"
)

func confirmYes(context.Context, *types.Task) (bool, error) { return true, nil }
func confirmNo(context.Context, *types.Task) (bool, error)  { return false, nil }

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store), store
}

func seedTree(t *testing.T, svc *Service) (*types.Project, *types.Issue) {
	t.Helper()
	ctx := context.Background()

	project := &types.Project{ID: "prj-1", Name: "Website relaunch"}
	if err := svc.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	issue := &types.Issue{ID: "iss-1", ProjectID: "prj-1", Title: "Landing page"}
	if err := svc.CreateIssue(ctx, issue); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	return project, issue
}

func mustTask(t *testing.T, svc *Service, task *types.Task) *types.Task {
	t.Helper()
	if err := svc.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask(%s): %v", task.ID, err)
	}
	return task
}

func issueProgress(t *testing.T, svc *Service, id string) float64 {
	t.Helper()
	issue, err := svc.Store().GetIssue(context.Background(), id)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	return issue.Progress
}

func projectProgress(t *testing.T, svc *Service, id string) float64 {
	t.Helper()
	project, err := svc.Store().GetProject(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	return project.Progress
}

func TestCreateTaskDerivesProgressAndRollsUp(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)

	task := mustTask(t, svc, &types.Task{
		ID:      "tsk-1",
		IssueID: "iss-1",
		Title:   "Hero section",
		Checklist: []types.ChecklistItem{
			{ID: "c1", Completed: true},
			{ID: "c2", Completed: false},
			{ID: "c3", Completed: true},
		},
		Status: types.StatusInProgress,
	})

	if task.Progress != 66.7 {
		t.Errorf("task progress = %g, want 66.7", task.Progress)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 66.7 {
		t.Errorf("issue progress = %g, want 66.7", got)
	}
	if got := projectProgress(t, svc, "prj-1"); got != 66.7 {
		t.Errorf("project progress = %g, want 66.7", got)
	}
}

func TestWeightedRollupAcrossSiblings(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)

	// Empty checklists: progress comes from the status table.
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted, Importance: types.ImportanceHigh})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusInProgress, Importance: types.ImportanceMedium})
	mustTask(t, svc, &types.Task{ID: "tsk-3", IssueID: "iss-1", Title: "C", Status: types.StatusIncomplete, Importance: types.ImportanceLow})

	// (100*3 + 50*2 + 0*1) / 6 = 66.7
	if got := issueProgress(t, svc, "iss-1"); got != 66.7 {
		t.Errorf("issue progress = %g, want 66.7", got)
	}
}

func TestEditChecklistConfirmedCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Checklist: []types.ChecklistItem{
		{ID: "c1", Completed: true},
		{ID: "c2", Completed: false},
	}, Status: types.StatusInProgress})

	ctx := context.Background()
	res, err := svc.EditChecklist(ctx, "tsk-1", []types.ChecklistItem{
		{ID: "c1", Completed: true},
		{ID: "c2", Completed: true},
	}, confirmYes)
	if err != nil {
		t.Fatalf("EditChecklist: %v", err)
	}
	if !res.RequiredConfirmation || !res.Confirmed {
		t.Errorf("result = %+v, want confirmation required and given", res)
	}
	if res.Task.Status != types.StatusCompleted || res.Task.Progress != 100 {
		t.Errorf("task = status %q progress %g, want completed/100", res.Task.Status, res.Task.Progress)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100", got)
	}
}

func TestEditChecklistDeclinedCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Status: types.StatusIncomplete})

	ctx := context.Background()
	res, err := svc.EditChecklist(ctx, "tsk-1", []types.ChecklistItem{
		{ID: "c1", Completed: true},
	}, confirmNo)
	if err != nil {
		t.Fatalf("EditChecklist: %v", err)
	}
	if !res.RequiredConfirmation || res.Confirmed {
		t.Errorf("result = %+v, want confirmation required and declined", res)
	}
	if res.Task.Status != types.StatusInProgress {
		t.Errorf("declined status = %q, want in_progress", res.Task.Status)
	}
	// Progress still reflects the checklist itself.
	if res.Task.Progress != 100 {
		t.Errorf("progress = %g, want 100", res.Task.Progress)
	}
}

func TestEditChecklistNilConfirmerDeclines(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Status: types.StatusIncomplete})

	res, err := svc.EditChecklist(context.Background(), "tsk-1", []types.ChecklistItem{
		{ID: "c1", Completed: true},
	}, nil)
	if err != nil {
		t.Fatalf("EditChecklist: %v", err)
	}
	if res.Task.Status == types.StatusCompleted {
		t.Error("nil confirmer must never persist completed")
	}
}

func TestEditChecklistStickyStatus(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Status: types.StatusOnHold})

	res, err := svc.EditChecklist(context.Background(), "tsk-1", []types.ChecklistItem{
		{ID: "c1", Completed: true},
	}, confirmYes)
	if err != nil {
		t.Fatalf("EditChecklist: %v", err)
	}
	if res.Task.Status != types.StatusOnHold {
		t.Errorf("status = %q, checklist edits must not move on_hold", res.Task.Status)
	}
	if res.RequiredConfirmation {
		t.Error("sticky edit must not ask for confirmation")
	}
	// Checklist still drives progress even under a sticky status.
	if res.Task.Progress != 100 {
		t.Errorf("progress = %g, want 100", res.Task.Progress)
	}
}

func TestSetStatusLeavesStickyState(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Status: types.StatusOnHold})

	task, err := svc.SetStatus(context.Background(), "tsk-1", types.StatusInProgress)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if task.Status != types.StatusInProgress {
		t.Errorf("status = %q, explicit change must leave on_hold", task.Status)
	}
	if task.Progress != 50 {
		t.Errorf("progress = %g, want 50 (status table, empty checklist)", task.Progress)
	}
}

func TestMarkCompletedOverride(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero", Checklist: []types.ChecklistItem{
		{ID: "c1", Completed: false},
		{ID: "c2", Completed: true},
	}, Status: types.StatusInProgress})

	task, err := svc.MarkCompleted(context.Background(), "tsk-1")
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if task.Status != types.StatusCompleted || task.Progress != 100 {
		t.Errorf("task = status %q progress %g, want completed/100", task.Status, task.Progress)
	}
	for _, item := range task.Checklist {
		if !item.Completed {
			t.Errorf("item %s left incomplete by override", item.ID)
		}
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100", got)
	}
}

func TestImportanceChangeReaggregatesWithoutProgressChange(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted, Importance: types.ImportanceLow})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusIncomplete, Importance: types.ImportanceLow})

	if got := issueProgress(t, svc, "iss-1"); got != 50 {
		t.Fatalf("issue progress = %g, want 50", got)
	}

	task, err := svc.SetImportance(context.Background(), "tsk-1", types.ImportanceCritical)
	if err != nil {
		t.Fatalf("SetImportance: %v", err)
	}
	if task.Progress != 100 {
		t.Errorf("task progress changed to %g on importance edit", task.Progress)
	}
	// (100*4 + 0*1) / 5 = 80
	if got := issueProgress(t, svc, "iss-1"); got != 80 {
		t.Errorf("issue progress = %g, want 80 after reweighting", got)
	}
}

func TestArchiveExcludesFromRollupAndFreezeOnEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusIncomplete})

	ctx := context.Background()
	if got := issueProgress(t, svc, "iss-1"); got != 50 {
		t.Fatalf("issue progress = %g, want 50", got)
	}

	if _, err := svc.SetArchived(ctx, "tsk-2", true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100 with tsk-2 archived", got)
	}

	// Archive the remaining task: the aggregate freezes at its last value.
	if _, err := svc.SetArchived(ctx, "tsk-1", true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want frozen at 100", got)
	}

	// Archived tasks stay individually queryable.
	if _, err := svc.Store().GetTask(ctx, "tsk-1"); err != nil {
		t.Errorf("archived task not queryable: %v", err)
	}
}

func TestDeleteTaskReaggregates(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusIncomplete})

	if err := svc.DeleteTask(context.Background(), "tsk-2"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100 after delete", got)
	}
}

func TestDiscardedTasksExcludedFromRollup(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusIncomplete})

	if _, err := svc.SetStatus(context.Background(), "tsk-2", types.StatusDiscarded); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100 with tsk-2 discarded", got)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, _ := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted, Importance: types.ImportanceCritical})
	mustTask(t, svc, &types.Task{ID: "tsk-2", IssueID: "iss-1", Title: "B", Status: types.StatusIncomplete})

	ctx := context.Background()
	before := issueProgress(t, svc, "iss-1")

	res, err := svc.PreviewIssue(ctx, "iss-1")
	if err != nil {
		t.Fatalf("PreviewIssue: %v", err)
	}
	if res.Progress != 80 {
		t.Errorf("preview progress = %g, want 80", res.Progress)
	}
	if len(res.Preview) == 0 || res.Preview[0].ID != "tsk-1" {
		t.Errorf("preview ranking = %+v, want tsk-1 first (critical)", res.Preview)
	}
	if got := issueProgress(t, svc, "iss-1"); got != before {
		t.Errorf("preview persisted a change: %g -> %g", before, got)
	}
}

func TestRecomputeAllRebuildsFromScratch(t *testing.T) {
	svc, store := newTestService(t)
	seedTree(t, svc)
	mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusCompleted})

	ctx := context.Background()

	// Corrupt the caches directly, bypassing the service.
	issue, err := store.GetIssue(ctx, "iss-1")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if err := store.UpdateIssueProgress(ctx, "iss-1", 12.5, issue.Version); err != nil {
		t.Fatalf("UpdateIssueProgress: %v", err)
	}

	if err := svc.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if got := issueProgress(t, svc, "iss-1"); got != 100 {
		t.Errorf("issue progress = %g, want 100 after recompute", got)
	}
	if got := projectProgress(t, svc, "prj-1"); got != 100 {
		t.Errorf("project progress = %g, want 100 after recompute", got)
	}
}

func TestStaleWriteSurfacesOnUserEdit(t *testing.T) {
	svc, store := newTestService(t)
	seedTree(t, svc)
	task := mustTask(t, svc, &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "A", Status: types.StatusIncomplete})

	ctx := context.Background()

	// Another writer updates the task behind our back.
	fresh, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	fresh.Title = "A, renamed"
	if err := store.UpdateTask(ctx, fresh); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	stale := *task
	stale.Description = "racing edit"
	if err := svc.UpdateDetails(ctx, &stale); !errors.Is(err, storage.ErrStaleWrite) {
		t.Errorf("UpdateDetails = %v, want ErrStaleWrite for the caller to resolve", err)
	}
}
