// Package worker runs the long-lived background jobs of serve: feed
// collection into the local index, event pruning and daily digests.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker is a background job that runs until ctx is cancelled.
type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs every worker and blocks until ctx is cancelled and all of them
// have returned. The first worker error, if any, is reported.
func (m *Manager) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(m.workers))
	for _, w := range m.workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			slog.Info("worker: starting", "worker", w.Name())
			if err := w.Start(ctx); err != nil {
				slog.Error("worker: exited with error", "worker", w.Name(), "error", err)
				errs <- err
			}
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runEvery calls fn immediately and then every interval until ctx ends.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}
