package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hackertok/internal/metrics"
	"hackertok/internal/model"
)

const (
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	DefaultProbeTimeout = 2 * time.Second
)

// GuardOptions tunes a Guarded store. Zero durations take the defaults.
type GuardOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ProbeTimeout time.Duration
	Metrics      *metrics.Metrics
}

// Guarded puts a deadline on every store call and swaps failures for a
// neutral fallback: reads yield nothing, writes are dropped. Callers on the
// interactive path never see a store error. The first availability probe
// decides for the lifetime of the value whether the store is used at all.
type Guarded struct {
	store Store
	opts  GuardOptions

	mu        sync.Mutex
	probed    bool
	available bool
}

// NewGuarded wraps store. A nil store is permanently unavailable.
func NewGuarded(store Store, opts GuardOptions) *Guarded {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	return &Guarded{store: store, opts: opts}
}

// Store returns the wrapped store.
func (g *Guarded) Store() Store {
	return g.store
}

// Available probes the store once and caches the answer.
func (g *Guarded) Available(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.probed {
		return g.available
	}
	if g.store == nil {
		g.probed = true
		return false
	}
	g.available = guard(ctx, g, "ping", g.opts.ProbeTimeout, false, func(ctx context.Context) (bool, error) {
		return true, g.store.Ping(ctx)
	})
	g.probed = true
	if !g.available {
		slog.Warn("storage: event store unavailable, ranking without history")
	}
	return g.available
}

// Events returns the full history, or nil when the store cannot answer.
func (g *Guarded) Events(ctx context.Context) []model.Event {
	if !g.Available(ctx) {
		return nil
	}
	return guard(ctx, g, "all", g.opts.ReadTimeout, []model.Event(nil), g.store.All)
}

// Seen returns the post IDs with any recorded event.
func (g *Guarded) Seen(ctx context.Context) map[int64]struct{} {
	empty := map[int64]struct{}{}
	if !g.Available(ctx) {
		return empty
	}
	return guard(ctx, g, "seen", g.opts.ReadTimeout, empty, g.store.SeenPostIDs)
}

// Has reports whether an event of type t exists for postID.
func (g *Guarded) Has(ctx context.Context, t model.EventType, postID int64) bool {
	if !g.Available(ctx) {
		return false
	}
	return guard(ctx, g, "exists", g.opts.ReadTimeout, false, func(ctx context.Context) (bool, error) {
		return g.store.ExistsForPost(ctx, t, postID)
	})
}

// Record appends ev and reports whether it was stored. The store works on
// a copy, so ev.ID is only set on success. A write that times out may
// still land once the store catches up.
func (g *Guarded) Record(ctx context.Context, ev *model.Event) bool {
	if !g.Available(ctx) {
		return false
	}
	cp := *ev
	id := guard(ctx, g, "append", g.opts.WriteTimeout, int64(0), func(ctx context.Context) (int64, error) {
		if err := g.store.Append(ctx, &cp); err != nil {
			return 0, err
		}
		return cp.ID, nil
	})
	if id == 0 {
		return false
	}
	ev.ID = id
	g.opts.Metrics.IncEvent(string(ev.Type))
	return true
}

// Remove deletes every (t, postID) event and returns how many went.
func (g *Guarded) Remove(ctx context.Context, t model.EventType, postID int64) int64 {
	if !g.Available(ctx) {
		return 0
	}
	return guard(ctx, g, "delete", g.opts.WriteTimeout, 0, func(ctx context.Context) (int64, error) {
		return g.store.DeleteByPost(ctx, t, postID)
	})
}

// guard runs fn under a deadline. A late result is discarded; the
// goroutine finishes on its own once fn honors the cancelled context.
func guard[T any](ctx context.Context, g *Guarded, op string, timeout time.Duration, fallback T, fn func(context.Context) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			slog.Warn("storage: operation failed", "op", op, "error", r.err)
			g.opts.Metrics.IncStoreOp(op, metrics.StatusFailure)
			return fallback
		}
		g.opts.Metrics.IncStoreOp(op, metrics.StatusSuccess)
		return r.v
	case <-ctx.Done():
		slog.Warn("storage: operation timed out", "op", op, "timeout", timeout)
		g.opts.Metrics.IncStoreOp(op, metrics.StatusTimeout)
		return fallback
	}
}
