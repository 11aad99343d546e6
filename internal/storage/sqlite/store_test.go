package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedTree(t *testing.T, s *Store) (*types.Project, *types.Issue, *types.Task) {
	t.Helper()
	ctx := context.Background()

	project := &types.Project{ID: "prj-1", Name: "Website relaunch"}
	if err := s.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	issue := &types.Issue{ID: "iss-1", ProjectID: "prj-1", Title: "Landing page", Status: types.StatusIncomplete}
	if err := s.CreateIssue(ctx, issue); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	task := &types.Task{ID: "tsk-1", IssueID: "iss-1", Title: "Hero section", Status: types.StatusIncomplete}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return project, issue, task
}

func TestTaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, issue, _ := seedTree(t, s)

	due := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	task := &types.Task{
		ID:         "tsk-2",
		IssueID:    issue.ID,
		Title:      "Pricing table",
		Status:     types.StatusInProgress,
		Importance: types.ImportanceHigh,
		Checklist: []types.ChecklistItem{
			{ID: "c1", Text: "copy", Completed: true},
			{ID: "c2", Text: "layout", Completed: false},
		},
		Progress: 50,
		Assignee: "dana",
		Tags:     []string{"frontend", "q4"},
		EndDate:  &due,
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask(ctx, "tsk-2")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != task.Title || got.Status != task.Status || got.Importance != task.Importance {
		t.Errorf("scalar fields lost: %+v", got)
	}
	if len(got.Checklist) != 2 || got.Checklist[0].Text != "copy" || !got.Checklist[0].Completed {
		t.Errorf("checklist lost: %+v", got.Checklist)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "q4" {
		t.Errorf("tags lost: %+v", got.Tags)
	}
	if got.EndDate == nil || !got.EndDate.Equal(due) {
		t.Errorf("end date lost: %v", got.EndDate)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
}

func TestUpdateTaskStaleWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, task := seedTree(t, s)

	first, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	second, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}

	first.Title = "Hero section, revised"
	if err := s.UpdateTask(ctx, first); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, want 2", first.Version)
	}

	second.Title = "Racing edit"
	if err := s.UpdateTask(ctx, second); !errors.Is(err, storage.ErrStaleWrite) {
		t.Errorf("racing UpdateTask = %v, want ErrStaleWrite", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Title != "Hero section, revised" {
		t.Errorf("stale write clobbered title: %q", got.Title)
	}
}

func TestUpdateMissingTaskReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTree(t, s)

	ghost := &types.Task{ID: "tsk-ghost", IssueID: "iss-1", Title: "Ghost", Status: types.StatusIncomplete, Version: 1}
	if err := s.UpdateTask(ctx, ghost); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateTask(missing) = %v, want ErrNotFound", err)
	}
}

func TestProgressCacheWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	project, issue, _ := seedTree(t, s)

	if err := s.UpdateIssueProgress(ctx, issue.ID, 66.7, issue.Version); err != nil {
		t.Fatalf("UpdateIssueProgress: %v", err)
	}
	gotIssue, err := s.GetIssue(ctx, issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if gotIssue.Progress != 66.7 {
		t.Errorf("issue progress = %g, want 66.7", gotIssue.Progress)
	}

	if err := s.UpdateIssueProgress(ctx, issue.ID, 70, issue.Version); !errors.Is(err, storage.ErrStaleWrite) {
		t.Errorf("stale UpdateIssueProgress = %v, want ErrStaleWrite", err)
	}

	if err := s.UpdateProjectProgress(ctx, project.ID, 66.7, project.Version); err != nil {
		t.Fatalf("UpdateProjectProgress: %v", err)
	}
	gotProject, err := s.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if gotProject.Progress != 66.7 {
		t.Errorf("project progress = %g, want 66.7", gotProject.Progress)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	project, issue, task := seedTree(t, s)

	if _, err := s.AddComment(ctx, task.ID, "dana", "first pass done"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	if err := s.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.GetIssue(ctx, issue.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("issue survived project delete: %v", err)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("task survived project delete: %v", err)
	}
}

func TestListScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, issue, _ := seedTree(t, s)

	other := &types.Issue{ID: "iss-2", ProjectID: "prj-1", Title: "Checkout", Status: types.StatusIncomplete}
	if err := s.CreateIssue(ctx, other); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	outsider := &types.Task{ID: "tsk-x", IssueID: "iss-2", Title: "Cart", Status: types.StatusIncomplete}
	if err := s.CreateTask(ctx, outsider); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := s.ListTasks(ctx, issue.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "tsk-1" {
		t.Errorf("ListTasks = %+v, want just tsk-1", tasks)
	}

	issues, err := s.ListIssues(ctx, "prj-1")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Errorf("ListIssues returned %d issues, want 2", len(issues))
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetConfig(ctx, "actor"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetConfig(missing) = %v, want ErrNotFound", err)
	}
	if err := s.SetConfig(ctx, "actor", "dana"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if err := s.SetConfig(ctx, "actor", "riley"); err != nil {
		t.Fatalf("SetConfig overwrite: %v", err)
	}
	got, err := s.GetConfig(ctx, "actor")
	if err != nil || got != "riley" {
		t.Errorf("GetConfig = (%q, %v), want (riley, nil)", got, err)
	}
}
