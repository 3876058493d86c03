package worker

import (
	"context"
	"log/slog"
	"time"

	"hackertok/internal/metrics"
	"hackertok/internal/storage"
)

// Pruner bounds the event store by age and by count.
type Pruner struct {
	Store     storage.Store
	Retention time.Duration // events older than this go; 0 keeps all ages
	MaxEvents int           // newest events kept; 0 means no cap
	Interval  time.Duration
	Clock     func() time.Time
	Metrics   *metrics.Metrics
}

func (w *Pruner) Name() string { return "pruner" }

func (w *Pruner) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	runEvery(ctx, w.Interval, func(ctx context.Context) { w.runOnce(ctx) })
	return nil
}

func (w *Pruner) runOnce(ctx context.Context) (int64, error) {
	started := time.Now()
	now := time.Now
	if w.Clock != nil {
		now = w.Clock
	}
	var cutoff time.Time
	if w.Retention > 0 {
		cutoff = now().Add(-w.Retention)
	}

	n, err := w.Store.Prune(ctx, cutoff, w.MaxEvents)
	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusFailure
		slog.Error("pruner: prune failed", "error", err)
	case n == 0:
		status = metrics.StatusEmpty
	default:
		slog.Info("pruner: removed events", "count", n, "cutoff", cutoff, "max_events", w.MaxEvents)
	}
	w.Metrics.ObserveWorkerRun(w.Name(), status, time.Since(started).Seconds())
	return n, err
}
