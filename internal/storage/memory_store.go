package storage

import (
	"context"
	"sync"
	"time"

	"hackertok/internal/model"
)

// MemoryStore keeps events in process memory. It is used for tests and for
// sessions that should leave no trace.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
	nextID int64
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) Append(ctx context.Context, ev *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	ev.ID = s.nextID
	s.nextID++
	cp := *ev
	cp.Topics = append([]string(nil), ev.Topics...)
	s.events = append(s.events, cp)
	return nil
}

func (s *MemoryStore) snapshot() ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *MemoryStore) All(ctx context.Context) ([]model.Event, error) {
	out, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	sortChronological(out)
	return out, nil
}

func (s *MemoryStore) OfType(ctx context.Context, t model.EventType) ([]model.Event, error) {
	all, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	var out []model.Event
	for _, ev := range all {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) SeenPostIDs(ctx context.Context) (map[int64]struct{}, error) {
	all, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(all))
	for _, ev := range all {
		seen[ev.PostID] = struct{}{}
	}
	return seen, nil
}

func (s *MemoryStore) deleteWhere(match func(model.Event) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	kept := s.events[:0]
	var n int64
	for _, ev := range s.events {
		if match(ev) {
			n++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return n, nil
}

func (s *MemoryStore) DeleteByPost(ctx context.Context, t model.EventType, postID int64) (int64, error) {
	return s.deleteWhere(func(ev model.Event) bool { return ev.Type == t && ev.PostID == postID })
}

func (s *MemoryStore) DeleteByComment(ctx context.Context, t model.EventType, commentID int64) (int64, error) {
	return s.deleteWhere(func(ev model.Event) bool { return ev.Type == t && ev.CommentID == commentID })
}

func (s *MemoryStore) exists(match func(model.Event) bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	for _, ev := range s.events {
		if match(ev) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ExistsForPost(ctx context.Context, t model.EventType, postID int64) (bool, error) {
	return s.exists(func(ev model.Event) bool { return ev.Type == t && ev.PostID == postID })
}

func (s *MemoryStore) ExistsForComment(ctx context.Context, t model.EventType, commentID int64) (bool, error) {
	return s.exists(func(ev model.Event) bool { return ev.Type == t && ev.CommentID == commentID })
}

func (s *MemoryStore) Prune(ctx context.Context, olderThan time.Time, maxEvents int) (int64, error) {
	all, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	victims := pruneVictims(all, olderThan, maxEvents)
	if len(victims) == 0 {
		return 0, nil
	}
	drop := make(map[int64]struct{}, len(victims))
	for _, id := range victims {
		drop[id] = struct{}{}
	}
	return s.deleteWhere(func(ev model.Event) bool {
		_, ok := drop[ev.ID]
		return ok
	})
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return int64(len(s.events)), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
