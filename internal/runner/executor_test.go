package runner_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/checklists"
	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/pipelines"
	"github.com/gavelworks/gavel/internal/runner"
	"github.com/gavelworks/gavel/internal/runs"
	"github.com/gavelworks/gavel/internal/summaries"
	"github.com/gavelworks/gavel/internal/tenders"
	"github.com/gavelworks/gavel/pkg/pagination"
)

// fakeRunStore holds a single run in memory and enforces the same status
// machine the repository does, so executor tests exercise the real edges.
type fakeRunStore struct {
	mu          sync.Mutex
	run         runs.Run
	transitions []runs.Status
	logs        []runs.LogCommand

	// cancelOnFind flips the run to CANCELLED once Find has been called
	// that many times, standing in for a concurrent cancel request.
	cancelOnFind int
	findCalls    int
}

func (f *fakeRunStore) Handler(runs.Enqueuer) *runs.Handler { return nil }

func (f *fakeRunStore) List(context.Context, pagination.PageRequest, runs.Filters) (*pagination.PageResult[runs.Run], error) {
	return nil, nil
}

func (f *fakeRunStore) Find(ctx context.Context, id uuid.UUID) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findCalls++
	if f.cancelOnFind > 0 && f.findCalls >= f.cancelOnFind {
		f.run.Status = runs.StatusCancelled
	}
	r := f.run
	return &r, nil
}

func (f *fakeRunStore) Create(context.Context, runs.CreateCommand, string) (*runs.Run, error) {
	return nil, nil
}

func (f *fakeRunStore) Transition(ctx context.Context, id uuid.UUID, to runs.Status, actorID string) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.run.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", runs.ErrRunFinal, f.run.Status)
	}
	if !f.run.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s to %s", runs.ErrInvalidTransition, f.run.Status, to)
	}

	f.run.Status = to
	f.transitions = append(f.transitions, to)
	r := f.run
	return &r, nil
}

func (f *fakeRunStore) TransitionTx(context.Context, *sql.Tx, uuid.UUID, runs.Status) (runs.Status, error) {
	return "", nil
}

func (f *fakeRunStore) Cancel(ctx context.Context, id uuid.UUID, actorID string) (*runs.Run, error) {
	return f.Transition(ctx, id, runs.StatusCancelled, actorID)
}

func (f *fakeRunStore) AppendLog(ctx context.Context, runID uuid.UUID, cmd runs.LogCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logs = append(f.logs, cmd)
	return nil
}

func (f *fakeRunStore) Logs(context.Context, uuid.UUID) ([]runs.LogEntry, error) {
	return nil, nil
}

func (f *fakeRunStore) status() runs.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.run.Status
}

type fakePipelineStore struct {
	byName map[string]*pipelines.Pipeline
}

func (f *fakePipelineStore) Handler() *pipelines.Handler { return nil }

func (f *fakePipelineStore) List(context.Context, pagination.PageRequest, pipelines.Filters) (*pagination.PageResult[pipelines.Pipeline], error) {
	return nil, nil
}

func (f *fakePipelineStore) Find(context.Context, uuid.UUID) (*pipelines.Pipeline, error) {
	return nil, pipelines.ErrNotFound
}

func (f *fakePipelineStore) FindByName(ctx context.Context, name string) (*pipelines.Pipeline, error) {
	p, ok := f.byName[name]
	if !ok {
		return nil, pipelines.ErrNotFound
	}
	return p, nil
}

func (f *fakePipelineStore) Create(context.Context, pipelines.Definition, string) (*pipelines.Pipeline, error) {
	return nil, nil
}

func (f *fakePipelineStore) Update(context.Context, string, pipelines.Definition, string) (*pipelines.Pipeline, error) {
	return nil, nil
}

type fakeTenderStore struct{}

func (fakeTenderStore) Handler() *tenders.Handler { return nil }

func (fakeTenderStore) List(context.Context, pagination.PageRequest, tenders.Filters) (*pagination.PageResult[tenders.Tender], error) {
	return nil, nil
}

func (fakeTenderStore) Find(context.Context, uuid.UUID) (*tenders.Tender, error) {
	return nil, tenders.ErrNotFound
}

func (fakeTenderStore) Create(context.Context, tenders.CreateCommand, string) (*tenders.Tender, error) {
	return nil, nil
}

func (fakeTenderStore) Transition(context.Context, uuid.UUID, tenders.Status, string) (*tenders.Tender, error) {
	return nil, nil
}

func (fakeTenderStore) TransitionTx(context.Context, *sql.Tx, uuid.UUID, tenders.Status) (tenders.Status, error) {
	return "", nil
}

type fakeDocumentStore struct{}

func (fakeDocumentStore) Handler(int64) *documents.Handler { return nil }

func (fakeDocumentStore) List(context.Context, pagination.PageRequest, documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return nil, nil
}

func (fakeDocumentStore) Find(context.Context, uuid.UUID) (*documents.Document, error) {
	return nil, documents.ErrNotFound
}

func (fakeDocumentStore) ListByTender(context.Context, uuid.UUID) ([]documents.Document, error) {
	return nil, nil
}

func (fakeDocumentStore) Create(context.Context, documents.CreateCommand) (*documents.Document, error) {
	return nil, nil
}

func (fakeDocumentStore) Delete(context.Context, uuid.UUID) error { return nil }

func (fakeDocumentStore) IngestTraceLinks(context.Context, uuid.UUID, documents.TraceLinkBatch) ([]documents.TraceLink, error) {
	return nil, nil
}

func (fakeDocumentStore) TraceLinks(context.Context, uuid.UUID) ([]documents.TraceLink, error) {
	return nil, nil
}

func (fakeDocumentStore) TraceLinksByTender(context.Context, uuid.UUID) ([]documents.TraceLink, error) {
	return nil, nil
}

// fakeExtractionStore fails ExtractField with ErrNoCandidates a configured
// number of times before succeeding.
type fakeExtractionStore struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *fakeExtractionStore) Handler() *extraction.Handler { return nil }

func (f *fakeExtractionStore) ExtractField(ctx context.Context, tenderID uuid.UUID, key extraction.FieldKey, opts extraction.Options) (*extraction.FieldExtraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, extraction.ErrNoCandidates
	}
	return &extraction.FieldExtraction{
		TenderID:   tenderID,
		FieldKey:   key,
		Confidence: 0.9,
	}, nil
}

func (f *fakeExtractionStore) Find(context.Context, uuid.UUID, extraction.FieldKey) (*extraction.FieldExtraction, error) {
	return nil, extraction.ErrNoCandidates
}

func (f *fakeExtractionStore) ListByTender(context.Context, uuid.UUID) ([]extraction.FieldExtraction, error) {
	return nil, nil
}

func (f *fakeExtractionStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeChecklistStore struct{}

func (fakeChecklistStore) Handler() *checklists.Handler { return nil }

func (fakeChecklistStore) Generate(context.Context, uuid.UUID, string) ([]checklists.ChecklistItem, error) {
	return nil, nil
}

func (fakeChecklistStore) ListByTender(context.Context, uuid.UUID) ([]checklists.ChecklistItem, error) {
	return nil, nil
}

type fakeSummaryStore struct{}

func (fakeSummaryStore) Handler() *summaries.Handler { return nil }

func (fakeSummaryStore) Generate(context.Context, uuid.UUID, string) ([]summaries.SummaryBlock, error) {
	return nil, nil
}

func (fakeSummaryStore) ListByTender(context.Context, uuid.UUID) ([]summaries.SummaryBlock, error) {
	return nil, nil
}

func testPipeline(name string, steps ...pipelines.StepDefinition) *pipelines.Pipeline {
	return &pipelines.Pipeline{
		ID:      uuid.New(),
		Name:    name,
		Version: 1,
		Definition: pipelines.Definition{
			Name:    name,
			Version: 1,
			Steps:   steps,
		},
	}
}

func newTestExecutor(fr *fakeRunStore, fp *fakePipelineStore, fx *fakeExtractionStore) *runner.Executor {
	cfg := runner.Config{
		DefaultStepTimeout: time.Second,
		RetryBackoff:       time.Millisecond,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return runner.NewExecutor(
		cfg, fr, fp,
		fakeTenderStore{}, fakeDocumentStore{}, fx,
		fakeChecklistStore{}, fakeSummaryStore{}, logger,
	)
}

func queuedRun(pipelineName string) runs.Run {
	return runs.Run{
		ID:           uuid.New(),
		TenderID:     uuid.New(),
		PipelineName: pipelineName,
		Status:       runs.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestExecuteUnknownPipelineFailsRun(t *testing.T) {
	fr := &fakeRunStore{run: queuedRun("vanished")}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{}}
	ex := newTestExecutor(fr, fp, &fakeExtractionStore{})

	err := ex.Execute(context.Background(), fr.run)
	if err == nil {
		t.Fatal("expected an error for an unknown pipeline")
	}
	if !errors.Is(err, pipelines.ErrNotFound) {
		t.Errorf("error = %v, want wrapped %v", err, pipelines.ErrNotFound)
	}

	if got := fr.status(); got != runs.StatusFailed {
		t.Errorf("run status = %s, want %s", got, runs.StatusFailed)
	}

	want := []runs.Status{runs.StatusRunning, runs.StatusFailed}
	if len(fr.transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", fr.transitions, want)
	}
	for i, status := range want {
		if fr.transitions[i] != status {
			t.Errorf("transition %d = %s, want %s", i, fr.transitions[i], status)
		}
	}
}

func TestExecuteRetriesRecoverableStep(t *testing.T) {
	fr := &fakeRunStore{run: queuedRun("intake")}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{
		"intake": testPipeline("intake", pipelines.StepDefinition{
			ID:      "extract-core",
			Name:    "Extract core fields",
			Uses:    pipelines.StepExtract,
			Retries: 2,
			With:    map[string]any{"fields": []string{"submission_deadline"}},
		}),
	}}
	fx := &fakeExtractionStore{failures: 1}
	ex := newTestExecutor(fr, fp, fx)

	if err := ex.Execute(context.Background(), fr.run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := fr.status(); got != runs.StatusCompleted {
		t.Errorf("run status = %s, want %s", got, runs.StatusCompleted)
	}
	if got := fx.callCount(); got != 2 {
		t.Errorf("extraction attempts = %d, want 2", got)
	}
}

func TestExecuteRetryExhaustionFailsRun(t *testing.T) {
	fr := &fakeRunStore{run: queuedRun("intake")}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{
		"intake": testPipeline("intake", pipelines.StepDefinition{
			ID:      "extract-core",
			Name:    "Extract core fields",
			Uses:    pipelines.StepExtract,
			Retries: 1,
			With:    map[string]any{"fields": []string{"submission_deadline"}},
		}),
	}}
	fx := &fakeExtractionStore{failures: 10}
	ex := newTestExecutor(fr, fp, fx)

	err := ex.Execute(context.Background(), fr.run)
	if err == nil {
		t.Fatal("expected an error after retry exhaustion")
	}

	var stepErr *runner.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want *runner.StepError", err)
	}
	if stepErr.StepID != "extract-core" {
		t.Errorf("StepID = %q, want %q", stepErr.StepID, "extract-core")
	}

	if got := fr.status(); got != runs.StatusFailed {
		t.Errorf("run status = %s, want %s", got, runs.StatusFailed)
	}
	if got := fx.callCount(); got != 2 {
		t.Errorf("extraction attempts = %d, want 2 (retries+1)", got)
	}
}

func TestExecuteContinueOnErrorCompletesRun(t *testing.T) {
	fr := &fakeRunStore{run: queuedRun("intake")}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{
		"intake": testPipeline("intake",
			pipelines.StepDefinition{
				ID:              "extract-optional",
				Name:            "Extract optional fields",
				Uses:            pipelines.StepExtract,
				ContinueOnError: true,
				With:            map[string]any{"fields": []string{"warranty_terms"}},
			},
			pipelines.StepDefinition{
				ID:   "notify-team",
				Name: "Notify the review team",
				Uses: pipelines.StepNotify,
				With: map[string]any{"channel": "bids"},
			},
		),
	}}
	fx := &fakeExtractionStore{failures: 10}
	ex := newTestExecutor(fr, fp, fx)

	if err := ex.Execute(context.Background(), fr.run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := fr.status(); got != runs.StatusCompleted {
		t.Errorf("run status = %s, want %s", got, runs.StatusCompleted)
	}
	if got := fx.callCount(); got != 1 {
		t.Errorf("extraction attempts = %d, want 1 (no retries configured)", got)
	}
}

func TestExecuteRejectsTerminalRun(t *testing.T) {
	run := queuedRun("intake")
	run.Status = runs.StatusCancelled
	fr := &fakeRunStore{run: run}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{
		"intake": testPipeline("intake", pipelines.StepDefinition{
			ID:   "notify-team",
			Name: "Notify the review team",
			Uses: pipelines.StepNotify,
		}),
	}}
	fx := &fakeExtractionStore{}
	ex := newTestExecutor(fr, fp, fx)

	err := ex.Execute(context.Background(), run)
	if !errors.Is(err, runs.ErrRunFinal) {
		t.Fatalf("error = %v, want wrapped %v", err, runs.ErrRunFinal)
	}

	if len(fr.transitions) != 0 {
		t.Errorf("transitions = %v, want none", fr.transitions)
	}
	if got := fr.status(); got != runs.StatusCancelled {
		t.Errorf("run status = %s, want %s", got, runs.StatusCancelled)
	}
}

func TestExecuteStopsAtCancellationBoundary(t *testing.T) {
	fr := &fakeRunStore{run: queuedRun("intake"), cancelOnFind: 2}
	fp := &fakePipelineStore{byName: map[string]*pipelines.Pipeline{
		"intake": testPipeline("intake",
			pipelines.StepDefinition{
				ID:   "notify-first",
				Name: "First notification",
				Uses: pipelines.StepNotify,
			},
			pipelines.StepDefinition{
				ID:   "notify-second",
				Name: "Second notification",
				Uses: pipelines.StepNotify,
			},
		),
	}}
	ex := newTestExecutor(fr, fp, &fakeExtractionStore{})

	if err := ex.Execute(context.Background(), fr.run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := fr.status(); got != runs.StatusCancelled {
		t.Errorf("run status = %s, want %s", got, runs.StatusCancelled)
	}

	// The second step never ran: only the start transition happened, and
	// no COMPLETED or FAILED edge was taken after the cancel.
	want := []runs.Status{runs.StatusRunning}
	if len(fr.transitions) != 1 || fr.transitions[0] != want[0] {
		t.Errorf("transitions = %v, want %v", fr.transitions, want)
	}
}
