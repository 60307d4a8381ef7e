package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/gavel/internal/runs"
	"github.com/gavelworks/gavel/internal/scheduler"
)

func newScheduler(queueSize int) *scheduler.Scheduler {
	cfg := scheduler.Config{
		Workers:      0,
		QueueSize:    queueSize,
		DrainTimeout: time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return scheduler.New(cfg, nil, nil, logger)
}

func newRun() runs.Run {
	return runs.Run{
		ID:       uuid.New(),
		TenderID: uuid.New(),
		Status:   runs.StatusPending,
	}
}

func TestEnqueueAcceptsUntilFull(t *testing.T) {
	s := newScheduler(2)
	ctx := context.Background()

	if err := s.Enqueue(ctx, newRun()); err != nil {
		t.Fatalf("first Enqueue() error = %v", err)
	}
	if err := s.Enqueue(ctx, newRun()); err != nil {
		t.Fatalf("second Enqueue() error = %v", err)
	}

	err := s.Enqueue(ctx, newRun())
	if !errors.Is(err, runs.ErrQueueFull) {
		t.Errorf("third Enqueue() error = %v, want ErrQueueFull", err)
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	s := newScheduler(4)

	if err := s.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	err := s.Enqueue(context.Background(), newRun())
	if !errors.Is(err, runs.ErrQueueFull) {
		t.Errorf("Enqueue() after shutdown error = %v, want ErrQueueFull", err)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	s := newScheduler(1)

	if err := s.Shutdown(time.Second); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := s.Shutdown(time.Second); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
}
