package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tallyhq/tally/internal/storage"
	"github.com/tallyhq/tally/internal/types"
)

const storageScopeName = "github.com/tallyhq/tally/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in tally.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged
// when telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("tally.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("tally.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("tally.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string) (context.Context, trace.Span, time.Time) {
	attrs := []attribute.KeyValue{attribute.String("db.operation", name)}
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, name string, err error) {
	attrs := []attribute.KeyValue{attribute.String("db.operation", name)}
	s.dur.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStorage) CreateProject(ctx context.Context, project *types.Project) error {
	ctx, span, start := s.op(ctx, "CreateProject")
	err := s.inner.CreateProject(ctx, project)
	s.done(ctx, span, start, "CreateProject", err)
	return err
}

func (s *InstrumentedStorage) GetProject(ctx context.Context, id string) (*types.Project, error) {
	ctx, span, start := s.op(ctx, "GetProject")
	project, err := s.inner.GetProject(ctx, id)
	s.done(ctx, span, start, "GetProject", err)
	return project, err
}

func (s *InstrumentedStorage) ListProjects(ctx context.Context) ([]*types.Project, error) {
	ctx, span, start := s.op(ctx, "ListProjects")
	projects, err := s.inner.ListProjects(ctx)
	s.done(ctx, span, start, "ListProjects", err)
	return projects, err
}

func (s *InstrumentedStorage) UpdateProject(ctx context.Context, project *types.Project) error {
	ctx, span, start := s.op(ctx, "UpdateProject")
	err := s.inner.UpdateProject(ctx, project)
	s.done(ctx, span, start, "UpdateProject", err)
	return err
}

func (s *InstrumentedStorage) UpdateProjectProgress(ctx context.Context, id string, progress float64, version int64) error {
	ctx, span, start := s.op(ctx, "UpdateProjectProgress")
	err := s.inner.UpdateProjectProgress(ctx, id, progress, version)
	s.done(ctx, span, start, "UpdateProjectProgress", err)
	return err
}

func (s *InstrumentedStorage) DeleteProject(ctx context.Context, id string) error {
	ctx, span, start := s.op(ctx, "DeleteProject")
	err := s.inner.DeleteProject(ctx, id)
	s.done(ctx, span, start, "DeleteProject", err)
	return err
}

func (s *InstrumentedStorage) CreateIssue(ctx context.Context, issue *types.Issue) error {
	ctx, span, start := s.op(ctx, "CreateIssue")
	err := s.inner.CreateIssue(ctx, issue)
	s.done(ctx, span, start, "CreateIssue", err)
	return err
}

func (s *InstrumentedStorage) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	ctx, span, start := s.op(ctx, "GetIssue")
	issue, err := s.inner.GetIssue(ctx, id)
	s.done(ctx, span, start, "GetIssue", err)
	return issue, err
}

func (s *InstrumentedStorage) ListIssues(ctx context.Context, projectID string) ([]*types.Issue, error) {
	ctx, span, start := s.op(ctx, "ListIssues")
	issues, err := s.inner.ListIssues(ctx, projectID)
	s.done(ctx, span, start, "ListIssues", err)
	return issues, err
}

func (s *InstrumentedStorage) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	ctx, span, start := s.op(ctx, "UpdateIssue")
	err := s.inner.UpdateIssue(ctx, issue)
	s.done(ctx, span, start, "UpdateIssue", err)
	return err
}

func (s *InstrumentedStorage) UpdateIssueProgress(ctx context.Context, id string, progress float64, version int64) error {
	ctx, span, start := s.op(ctx, "UpdateIssueProgress")
	err := s.inner.UpdateIssueProgress(ctx, id, progress, version)
	s.done(ctx, span, start, "UpdateIssueProgress", err)
	return err
}

func (s *InstrumentedStorage) DeleteIssue(ctx context.Context, id string) error {
	ctx, span, start := s.op(ctx, "DeleteIssue")
	err := s.inner.DeleteIssue(ctx, id)
	s.done(ctx, span, start, "DeleteIssue", err)
	return err
}

func (s *InstrumentedStorage) CreateTask(ctx context.Context, task *types.Task) error {
	ctx, span, start := s.op(ctx, "CreateTask")
	err := s.inner.CreateTask(ctx, task)
	s.done(ctx, span, start, "CreateTask", err)
	return err
}

func (s *InstrumentedStorage) GetTask(ctx context.Context, id string) (*types.Task, error) {
	ctx, span, start := s.op(ctx, "GetTask")
	task, err := s.inner.GetTask(ctx, id)
	s.done(ctx, span, start, "GetTask", err)
	return task, err
}

func (s *InstrumentedStorage) ListTasks(ctx context.Context, issueID string) ([]*types.Task, error) {
	ctx, span, start := s.op(ctx, "ListTasks")
	tasks, err := s.inner.ListTasks(ctx, issueID)
	s.done(ctx, span, start, "ListTasks", err)
	return tasks, err
}

func (s *InstrumentedStorage) UpdateTask(ctx context.Context, task *types.Task) error {
	ctx, span, start := s.op(ctx, "UpdateTask")
	err := s.inner.UpdateTask(ctx, task)
	s.done(ctx, span, start, "UpdateTask", err)
	return err
}

func (s *InstrumentedStorage) DeleteTask(ctx context.Context, id string) error {
	ctx, span, start := s.op(ctx, "DeleteTask")
	err := s.inner.DeleteTask(ctx, id)
	s.done(ctx, span, start, "DeleteTask", err)
	return err
}

func (s *InstrumentedStorage) AddComment(ctx context.Context, taskID, author, text string) (*types.Comment, error) {
	ctx, span, start := s.op(ctx, "AddComment")
	comment, err := s.inner.AddComment(ctx, taskID, author, text)
	s.done(ctx, span, start, "AddComment", err)
	return comment, err
}

func (s *InstrumentedStorage) GetComments(ctx context.Context, taskID string) ([]*types.Comment, error) {
	ctx, span, start := s.op(ctx, "GetComments")
	comments, err := s.inner.GetComments(ctx, taskID)
	s.done(ctx, span, start, "GetComments", err)
	return comments, err
}

func (s *InstrumentedStorage) SetConfig(ctx context.Context, key, value string) error {
	ctx, span, start := s.op(ctx, "SetConfig")
	err := s.inner.SetConfig(ctx, key, value)
	s.done(ctx, span, start, "SetConfig", err)
	return err
}

func (s *InstrumentedStorage) GetConfig(ctx context.Context, key string) (string, error) {
	ctx, span, start := s.op(ctx, "GetConfig")
	value, err := s.inner.GetConfig(ctx, key)
	s.done(ctx, span, start, "GetConfig", err)
	return value, err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
