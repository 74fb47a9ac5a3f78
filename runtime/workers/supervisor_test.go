package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type countingWorker struct {
	runs       atomic.Int32
	panicUntil int32
	done       chan struct{}
}

// Run panics for the first panicUntil runs, then finishes cleanly.
func (w *countingWorker) Run(_ context.Context) error {
	run := w.runs.Add(1)
	if run <= w.panicUntil {
		panic("boom")
	}
	close(w.done)
	return nil
}

type blockingWorker struct {
	started chan struct{}
}

func (w *blockingWorker) Run(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestSupervisor_Restarts_Panicking_Worker(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a worker that panics twice before succeeding
	worker := &countingWorker{panicUntil: 2, done: make(chan struct{})}
	sup := NewSupervisor(log, time.Millisecond)
	sup.Add(worker)

	finished := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(finished)
	}()

	// Then it eventually completes after two restarts
	select {
	case <-worker.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never completed")
	}
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor never drained")
	}
	req.Equal(int32(3), worker.runs.Load())
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	worker := &blockingWorker{started: make(chan struct{})}
	sup := NewSupervisor(log, time.Millisecond)
	sup.Add(worker)

	finished := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(finished)
	}()

	// Given the worker is running
	select {
	case <-worker.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started")
	}

	// When the supervisor stops
	sup.Stop()

	// Then Run drains without restarting the canceled worker
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor never drained")
	}
}

func TestSupervisor_Parent_Context_Cancels_Workers(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	worker := &blockingWorker{started: make(chan struct{})}
	sup := NewSupervisor(log, time.Millisecond)
	sup.Add(worker)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(finished)
	}()

	<-worker.started
	cancel()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor never drained")
	}
}
