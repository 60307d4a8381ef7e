package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gavelworks/gavel/internal/checklists"
	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/pipelines"
	"github.com/gavelworks/gavel/internal/runs"
	"github.com/gavelworks/gavel/internal/summaries"
	"github.com/gavelworks/gavel/internal/tenders"
)

// systemActor attributes runner-originated transitions in the audit log.
const systemActor = "system"

// Config holds the executor's timing defaults.
type Config struct {
	// DefaultStepTimeout bounds steps that configure no timeout of their own.
	DefaultStepTimeout time.Duration

	// RetryBackoff is the base delay between step re-attempts; it doubles
	// per attempt.
	RetryBackoff time.Duration
}

// HandlerFunc executes one step attempt.
type HandlerFunc func(ctx context.Context, sc *StepContext) Outcome

// Executor runs pipeline definitions. The handler registry is fixed at
// construction and shared read-only across workers.
type Executor struct {
	cfg       Config
	registry  map[pipelines.StepType]HandlerFunc
	runs      runs.System
	pipelines pipelines.System
	tenders   tenders.System
	docs      documents.System
	fields    extraction.System
	checks    checklists.System
	sums      summaries.System
	logger    *slog.Logger
}

// NewExecutor creates an Executor with the full step registry.
func NewExecutor(
	cfg Config,
	runSys runs.System,
	pipelineSys pipelines.System,
	tenderSys tenders.System,
	docSys documents.System,
	fieldSys extraction.System,
	checkSys checklists.System,
	summarySys summaries.System,
	logger *slog.Logger,
) *Executor {
	e := &Executor{
		cfg:       cfg,
		runs:      runSys,
		pipelines: pipelineSys,
		tenders:   tenderSys,
		docs:      docSys,
		fields:    fieldSys,
		checks:    checkSys,
		sums:      summarySys,
		logger:    logger.With("system", "runner"),
	}
	e.registry = map[pipelines.StepType]HandlerFunc{
		pipelines.StepPrepare:       e.prepareStep,
		pipelines.StepExtract:       e.extractStep,
		pipelines.StepChecklist:     e.checklistStep,
		pipelines.StepSummary:       e.summaryStep,
		pipelines.StepHumanApproval: e.humanApprovalStep,
		pipelines.StepNotify:        e.notifyStep,
	}
	return e
}

// Execute runs the named pipeline against the run's tender. Steps execute
// strictly in order; the run finishes COMPLETED, FAILED, or CANCELLED.
func (e *Executor) Execute(ctx context.Context, run runs.Run) error {
	sc := &StepContext{
		Run:      run,
		Values:   map[string]any{},
		Logger:   e.logger.With("run", run.ID),
		appender: e.runs,
	}

	// The run is claimed RUNNING before anything else can fail, so every
	// failure from here on has the RUNNING -> FAILED edge available.
	if _, err := e.runs.Transition(ctx, run.ID, runs.StatusRunning, systemActor); err != nil {
		// A run cancelled while queued is already terminal; nothing to do.
		e.logger.Warn("run not startable", "run", run.ID, "error", err)
		return err
	}

	pipeline, err := e.pipelines.FindByName(ctx, run.PipelineName)
	if err != nil {
		return e.fail(ctx, sc, "", fmt.Errorf("load pipeline %s: %w", run.PipelineName, err))
	}

	sc.Log(ctx, "info", "run started", map[string]any{
		"pipeline": pipeline.Name,
		"version":  pipeline.Version,
	})

	for _, step := range pipeline.Definition.Steps {
		cancelled, err := e.checkCancelled(ctx, sc)
		if err != nil {
			return e.fail(ctx, sc, step.ID, err)
		}
		if cancelled {
			return nil
		}

		sc.Step = step

		handler, ok := e.registry[step.Uses]
		if !ok {
			return e.fail(ctx, sc, step.ID, fmt.Errorf("%w: %s", ErrUnknownStep, step.Uses))
		}

		outcome := e.runStep(ctx, sc, handler)
		if outcome.Succeeded() {
			for k, v := range outcome.Data() {
				sc.Values[k] = v
			}
			sc.Log(ctx, "info", "step completed", nil)
			continue
		}

		if step.ContinueOnError && outcome.Retryable() {
			sc.Log(ctx, "warn", "step failed, continuing", map[string]any{
				"error": outcome.Err().Error(),
			})
			continue
		}

		return e.fail(ctx, sc, step.ID, outcome.Err())
	}

	sc.Step = pipelines.StepDefinition{}
	sc.Log(ctx, "info", "run completed", nil)

	if _, err := e.runs.Transition(ctx, run.ID, runs.StatusCompleted, systemActor); err != nil {
		e.logger.Error("complete run", "run", run.ID, "error", err)
		return err
	}
	return nil
}

// runStep attempts the step up to retries+1 times with doubling backoff.
// Only recoverable outcomes are retried.
func (e *Executor) runStep(ctx context.Context, sc *StepContext, handler HandlerFunc) Outcome {
	timeout := sc.Step.TimeoutDuration(e.cfg.DefaultStepTimeout)
	attempts := sc.Step.Retries + 1

	var out Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		out = handler(stepCtx, sc)
		cancel()

		if !out.Retryable() {
			return out
		}

		sc.Log(ctx, "warn", "step attempt failed", map[string]any{
			"attempt": attempt,
			"of":      attempts,
			"error":   out.Err().Error(),
		})

		if attempt < attempts {
			backoff := e.cfg.RetryBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Fatal(ctx.Err())
			}
		}
	}
	return out
}

// checkCancelled re-reads the run at the step boundary. Cancellation is
// cooperative: an in-progress step is never interrupted.
func (e *Executor) checkCancelled(ctx context.Context, sc *StepContext) (bool, error) {
	current, err := e.runs.Find(ctx, sc.Run.ID)
	if err != nil {
		return false, fmt.Errorf("reload run: %w", err)
	}

	if current.Status == runs.StatusCancelled {
		sc.Log(ctx, "warn", "run cancelled, stopping at step boundary", nil)
		return true, nil
	}
	return false, nil
}

func (e *Executor) fail(ctx context.Context, sc *StepContext, stepID string, cause error) error {
	sc.Log(ctx, "error", "run failed", map[string]any{
		"step":  stepID,
		"error": cause.Error(),
	})

	if _, err := e.runs.Transition(ctx, sc.Run.ID, runs.StatusFailed, systemActor); err != nil {
		e.logger.Error("mark run failed", "run", sc.Run.ID, "error", err)
	}

	return &StepError{StepID: stepID, Err: cause}
}
