package api

import (
	"github.com/gavelworks/gavel/internal/approvals"
	"github.com/gavelworks/gavel/internal/audit"
	"github.com/gavelworks/gavel/internal/checklists"
	"github.com/gavelworks/gavel/internal/config"
	"github.com/gavelworks/gavel/internal/documents"
	"github.com/gavelworks/gavel/internal/extraction"
	"github.com/gavelworks/gavel/internal/pipelines"
	"github.com/gavelworks/gavel/internal/runner"
	"github.com/gavelworks/gavel/internal/runs"
	"github.com/gavelworks/gavel/internal/scheduler"
	"github.com/gavelworks/gavel/internal/summaries"
	"github.com/gavelworks/gavel/internal/tenders"
)

// Domain holds all domain systems that comprise the API, plus the run
// execution machinery built on top of them.
type Domain struct {
	Audit       audit.System
	Tenders     tenders.System
	Documents   documents.System
	Pipelines   pipelines.System
	Runs        runs.System
	Extractions extraction.System
	Checklists  checklists.System
	Summaries   summaries.System
	Approvals   approvals.System

	Executor  *runner.Executor
	Scheduler *scheduler.Scheduler
}

// NewDomain creates all domain systems from the API runtime. Construction
// order follows the dependency graph: audit first, leaf domains next, then
// the executor and scheduler on top.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	auditSystem := audit.New(db, runtime.Logger, runtime.Pagination)

	tenderSystem := tenders.New(db, auditSystem, runtime.Logger, runtime.Pagination)

	documentSystem := documents.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)

	pipelineSystem := pipelines.New(db, auditSystem, runtime.Logger, runtime.Pagination)

	runSystem := runs.New(db, auditSystem, runtime.Logger, runtime.Pagination)

	extractionSystem := extraction.New(db, documentSystem, runtime.Logger)

	checklistSystem := checklists.New(db, tenderSystem, extractionSystem, runtime.Logger)

	summarySystem := summaries.New(db, tenderSystem, documentSystem, extractionSystem, nil, runtime.Logger)

	approvalSystem := approvals.New(db, tenderSystem, extractionSystem, checklistSystem, auditSystem, runtime.Logger)

	executor := runner.NewExecutor(
		runner.Config{
			DefaultStepTimeout: cfg.Pipeline.StepTimeoutDuration(),
			RetryBackoff:       cfg.Pipeline.RetryBackoffDuration(),
		},
		runSystem,
		pipelineSystem,
		tenderSystem,
		documentSystem,
		extractionSystem,
		checklistSystem,
		summarySystem,
		runtime.Logger,
	)

	sched := scheduler.New(
		scheduler.Config{
			Workers:      cfg.Scheduler.Workers,
			QueueSize:    cfg.Scheduler.QueueSize,
			DrainTimeout: cfg.Scheduler.DrainTimeoutDuration(),
		},
		executor,
		runSystem,
		runtime.Logger,
	)

	return &Domain{
		Audit:       auditSystem,
		Tenders:     tenderSystem,
		Documents:   documentSystem,
		Pipelines:   pipelineSystem,
		Runs:        runSystem,
		Extractions: extractionSystem,
		Checklists:  checklistSystem,
		Summaries:   summarySystem,
		Approvals:   approvalSystem,
		Executor:    executor,
		Scheduler:   sched,
	}
}
