package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"hackertok/internal/metrics"
	"hackertok/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore wraps a MemoryStore and can stall or fail selected calls.
type flakyStore struct {
	*MemoryStore
	stall   time.Duration
	failAll bool
	pingErr error
	pings   atomic.Int32
}

func (f *flakyStore) Ping(ctx context.Context) error {
	f.pings.Add(1)
	return f.pingErr
}

func (f *flakyStore) All(ctx context.Context) ([]model.Event, error) {
	if f.stall > 0 {
		select {
		case <-time.After(f.stall):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failAll {
		return nil, errors.New("disk on fire")
	}
	return f.MemoryStore.All(ctx)
}

func (f *flakyStore) Append(ctx context.Context, ev *model.Event) error {
	if f.stall > 0 {
		select {
		case <-time.After(f.stall):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.MemoryStore.Append(ctx, ev)
}

func fastOpts() GuardOptions {
	return GuardOptions{ReadTimeout: 50 * time.Millisecond, WriteTimeout: 50 * time.Millisecond, ProbeTimeout: 50 * time.Millisecond}
}

func TestGuarded_PassThrough(t *testing.T) {
	ctx := context.Background()
	g := NewGuarded(NewMemoryStore(), GuardOptions{})
	require.True(t, g.Available(ctx))

	e := model.Event{Type: model.EventLike, PostID: 1, Timestamp: base.UnixMilli()}
	assert.True(t, g.Record(ctx, &e))
	assert.NotZero(t, e.ID)
	assert.True(t, g.Has(ctx, model.EventLike, 1))
	assert.Len(t, g.Events(ctx), 1)
	assert.Contains(t, g.Seen(ctx), int64(1))
	assert.Equal(t, int64(1), g.Remove(ctx, model.EventLike, 1))
	assert.False(t, g.Has(ctx, model.EventLike, 1))
}

func TestGuarded_ReadTimeoutFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, fs.MemoryStore.Append(ctx, &model.Event{Type: model.EventLike, PostID: 1}))
	fs.stall = time.Second

	m := metrics.New()
	opts := fastOpts()
	opts.Metrics = m
	g := NewGuarded(fs, opts)

	start := time.Now()
	assert.Empty(t, g.Events(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGuarded_WriteTimeoutDropsSilently(t *testing.T) {
	fs := &flakyStore{MemoryStore: NewMemoryStore(), stall: time.Second}
	g := NewGuarded(fs, fastOpts())
	e := model.Event{Type: model.EventSkip, PostID: 3}
	assert.False(t, g.Record(context.Background(), &e))
}

// lateStore ignores cancellation, so a timed-out append still lands.
type lateStore struct {
	*MemoryStore
	delay time.Duration
	done  chan struct{}
}

func (l *lateStore) Append(ctx context.Context, ev *model.Event) error {
	defer close(l.done)
	time.Sleep(l.delay)
	return l.MemoryStore.Append(context.Background(), ev)
}

func TestGuarded_LateWriteLeavesCallerEventAlone(t *testing.T) {
	ctx := context.Background()
	ls := &lateStore{MemoryStore: NewMemoryStore(), delay: 200 * time.Millisecond, done: make(chan struct{})}
	g := NewGuarded(ls, fastOpts())

	e := model.Event{Type: model.EventLike, PostID: 9}
	require.False(t, g.Record(ctx, &e))
	e.ID = -1
	e.PostID = 10
	<-ls.done

	assert.Equal(t, int64(-1), e.ID)
	all, err := ls.MemoryStore.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(9), all[0].PostID)
}

func TestGuarded_ErrorFallsBack(t *testing.T) {
	fs := &flakyStore{MemoryStore: NewMemoryStore(), failAll: true}
	g := NewGuarded(fs, fastOpts())
	assert.Nil(t, g.Events(context.Background()))
}

func TestGuarded_UnavailableIsCached(t *testing.T) {
	ctx := context.Background()
	fs := &flakyStore{MemoryStore: NewMemoryStore(), pingErr: errors.New("connection refused")}
	g := NewGuarded(fs, fastOpts())

	assert.False(t, g.Available(ctx))
	e := model.Event{Type: model.EventLike, PostID: 1}
	assert.False(t, g.Record(ctx, &e))
	assert.Empty(t, g.Events(ctx))
	assert.Empty(t, g.Seen(ctx))
	assert.False(t, g.Has(ctx, model.EventLike, 1))

	fs.pingErr = nil
	assert.False(t, g.Available(ctx), "first answer sticks")
	assert.Equal(t, int32(1), fs.pings.Load())

	n, err := fs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing reached the store")
}

func TestGuarded_NilStore(t *testing.T) {
	g := NewGuarded(nil, GuardOptions{})
	assert.False(t, g.Available(context.Background()))
	assert.Empty(t, g.Events(context.Background()))
	assert.Zero(t, g.Remove(context.Background(), model.EventLike, 1))
}
