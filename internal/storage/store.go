// Package storage persists the reader's event log. Every backend satisfies
// Store; Guarded wraps one with timeouts and fallbacks for use on the
// interactive path.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"hackertok/internal/model"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store closed")

// Store is the event log contract.
type Store interface {
	// Append assigns ev an ID and persists it.
	Append(ctx context.Context, ev *model.Event) error
	// All returns every event, oldest first.
	All(ctx context.Context) ([]model.Event, error)
	// OfType returns events of type t, newest first.
	OfType(ctx context.Context, t model.EventType) ([]model.Event, error)
	// SeenPostIDs returns every post ID with at least one event.
	SeenPostIDs(ctx context.Context) (map[int64]struct{}, error)
	DeleteByPost(ctx context.Context, t model.EventType, postID int64) (int64, error)
	DeleteByComment(ctx context.Context, t model.EventType, commentID int64) (int64, error)
	ExistsForPost(ctx context.Context, t model.EventType, postID int64) (bool, error)
	ExistsForComment(ctx context.Context, t model.EventType, commentID int64) (bool, error)
	// Prune drops events older than olderThan (ignored when zero) and then
	// the oldest events beyond maxEvents (ignored when <= 0).
	Prune(ctx context.Context, olderThan time.Time, maxEvents int) (int64, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Stats summarizes an event log.
type Stats struct {
	Total  int64
	ByType map[model.EventType]int64
	Oldest time.Time
	Newest time.Time
}

// Summarize computes Stats from a chronological event slice.
func Summarize(events []model.Event) Stats {
	st := Stats{Total: int64(len(events)), ByType: map[model.EventType]int64{}}
	for _, ev := range events {
		st.ByType[ev.Type]++
		t := ev.Time()
		if st.Oldest.IsZero() || t.Before(st.Oldest) {
			st.Oldest = t
		}
		if t.After(st.Newest) {
			st.Newest = t
		}
	}
	return st
}

// sortChronological orders events by timestamp then ID.
func sortChronological(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].ID < events[j].ID
	})
}

// sortNewestFirst orders events by timestamp then ID, descending.
func sortNewestFirst(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp > events[j].Timestamp
		}
		return events[i].ID > events[j].ID
	})
}

// pruneVictims picks the IDs Prune should delete from a chronological slice.
func pruneVictims(events []model.Event, olderThan time.Time, maxEvents int) []int64 {
	var victims []int64
	kept := events
	if !olderThan.IsZero() {
		cutoff := olderThan.UnixMilli()
		i := 0
		for i < len(events) && events[i].Timestamp < cutoff {
			victims = append(victims, events[i].ID)
			i++
		}
		kept = events[i:]
	}
	if maxEvents > 0 && len(kept) > maxEvents {
		for _, ev := range kept[:len(kept)-maxEvents] {
			victims = append(victims, ev.ID)
		}
	}
	return victims
}
