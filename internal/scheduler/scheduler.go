// Package scheduler owns the bounded worker pool that executes pipeline
// runs. It guarantees at most one active execution per run id and per
// tender id; a run for a busy tender is requeued after a short delay rather
// than executed concurrently.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gavelworks/gavel/internal/runner"
	"github.com/gavelworks/gavel/internal/runs"
	"github.com/gavelworks/gavel/pkg/lifecycle"
)

// requeueDelay is how long a run for a busy tender waits before re-entering
// the queue.
const requeueDelay = 500 * time.Millisecond

// Config holds the scheduler's pool dimensions.
type Config struct {
	Workers      int
	QueueSize    int
	DrainTimeout time.Duration
}

// Scheduler dispatches queued runs to a fixed worker pool.
type Scheduler struct {
	cfg      Config
	executor *runner.Executor
	runs     runs.System
	logger   *slog.Logger

	queue    chan runs.Run
	group    *errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc
	draining atomic.Bool

	mu            sync.Mutex
	stopped       bool
	activeRuns    map[uuid.UUID]struct{}
	activeTenders map[uuid.UUID]struct{}
}

// New creates a Scheduler. Start must be called before Enqueue accepts work.
func New(cfg Config, executor *runner.Executor, runSys runs.System, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	return &Scheduler{
		cfg:           cfg,
		executor:      executor,
		runs:          runSys,
		logger:        logger.With("system", "scheduler"),
		queue:         make(chan runs.Run, cfg.QueueSize),
		group:         group,
		ctx:           ctx,
		cancel:        cancel,
		activeRuns:    make(map[uuid.UUID]struct{}),
		activeTenders: make(map[uuid.UUID]struct{}),
	}
}

// Start launches the worker pool and registers shutdown with the lifecycle
// coordinator.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.group.Go(s.work)
	}
	s.logger.Info("scheduler started", "workers", s.cfg.Workers, "queue", s.cfg.QueueSize)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.Shutdown(s.cfg.DrainTimeout); err != nil {
			s.logger.Error("scheduler shutdown", "error", err)
		}
	})
}

// Enqueue submits a persisted run for execution. Returns runs.ErrQueueFull
// when the queue cannot accept it or intake has stopped.
func (s *Scheduler) Enqueue(ctx context.Context, run runs.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler stopped: %w", runs.ErrQueueFull)
	}

	select {
	case s.queue <- run:
		return nil
	default:
		return runs.ErrQueueFull
	}
}

// Shutdown stops intake, lets in-flight runs finish within the timeout, and
// cancels everything still queued.
func (s *Scheduler) Shutdown(drainTimeout time.Duration) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.draining.Store(true)
	// Closing under the lock keeps Enqueue from racing a send against the
	// close.
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if err := s.group.Wait(); err != nil {
			s.logger.Error("worker pool", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler drained")
		return nil
	case <-time.After(drainTimeout):
		s.cancel()
		<-done
		return fmt.Errorf("drain timeout after %v", drainTimeout)
	}
}

func (s *Scheduler) work() error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case run, ok := <-s.queue:
			if !ok {
				return nil
			}
			if s.draining.Load() {
				s.cancelQueued(run)
				continue
			}
			s.dispatch(run)
		}
	}
}

func (s *Scheduler) dispatch(run runs.Run) {
	switch s.claim(run) {
	case claimed:
		defer s.release(run)
		if err := s.executor.Execute(s.ctx, run); err != nil {
			s.logger.Error("run execution", "run", run.ID, "error", err)
		}
	case runBusy:
		// A second request for an already-executing run is a duplicate,
		// not new work.
		s.logger.Warn("run already active, dropping duplicate", "run", run.ID)
	case tenderBusy:
		s.logger.Info("tender busy, requeueing run", "run", run.ID, "tender", run.TenderID)
		time.AfterFunc(requeueDelay, func() {
			if err := s.Enqueue(context.Background(), run); err != nil {
				s.cancelQueued(run)
			}
		})
	}
}

type claimResult int

const (
	claimed claimResult = iota
	runBusy
	tenderBusy
)

// claim takes the run and tender slots atomically.
func (s *Scheduler) claim(run runs.Run) claimResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activeRuns[run.ID]; ok {
		return runBusy
	}
	if _, ok := s.activeTenders[run.TenderID]; ok {
		return tenderBusy
	}

	s.activeRuns[run.ID] = struct{}{}
	s.activeTenders[run.TenderID] = struct{}{}
	return claimed
}

func (s *Scheduler) release(run runs.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeRuns, run.ID)
	delete(s.activeTenders, run.TenderID)
}

// cancelQueued marks a run that will never execute as CANCELLED.
func (s *Scheduler) cancelQueued(run runs.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.runs.Cancel(ctx, run.ID, "system"); err != nil {
		s.logger.Error("cancel queued run", "run", run.ID, "error", err)
	}
}
