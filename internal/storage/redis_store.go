package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"hackertok/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each event as a JSON blob plus sorted-set indexes for
// chronological and per-type reads and plain sets for (type, post) and
// (type, comment) lookups.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "hackertok"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) seqKey() string { return s.prefix + ":events:seq" }

func (s *RedisStore) allKey() string { return s.prefix + ":events:all" }

func (s *RedisStore) itemKey(id int64) string {
	return fmt.Sprintf("%s:events:item:%d", s.prefix, id)
}

func (s *RedisStore) typeKey(t model.EventType) string {
	return fmt.Sprintf("%s:events:type:%s", s.prefix, t)
}

func (s *RedisStore) postKey(t model.EventType, postID int64) string {
	return fmt.Sprintf("%s:events:post:%s:%d", s.prefix, t, postID)
}

func (s *RedisStore) commentKey(t model.EventType, commentID int64) string {
	return fmt.Sprintf("%s:events:comment:%s:%d", s.prefix, t, commentID)
}

func (s *RedisStore) Append(ctx context.Context, ev *model.Event) error {
	id, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("storage: next event id: %w", err)
	}
	ev.ID = id
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("storage: encode event: %w", err)
	}
	member := strconv.FormatInt(id, 10)
	score := float64(ev.Timestamp)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.itemKey(id), b, 0)
		p.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: member})
		p.ZAdd(ctx, s.typeKey(ev.Type), redis.Z{Score: score, Member: member})
		p.SAdd(ctx, s.postKey(ev.Type, ev.PostID), member)
		if ev.CommentID != 0 {
			p.SAdd(ctx, s.commentKey(ev.Type, ev.CommentID), member)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: append event %d: %w", id, err)
	}
	return nil
}

// load fetches the blobs for ids. Members whose blob has vanished are
// skipped.
func (s *RedisStore) load(ctx context.Context, ids []string) ([]model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, m := range ids {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("storage: bad event member %q: %w", m, err)
		}
		keys[i] = s.itemKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: load events: %w", err)
	}
	out := make([]model.Event, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal([]byte(str), &ev); err != nil {
			return nil, fmt.Errorf("storage: decode %s: %w", keys[i], err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *RedisStore) All(ctx context.Context) ([]model.Event, error) {
	ids, err := s.rdb.ZRange(ctx, s.allKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: list events: %w", err)
	}
	out, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortChronological(out)
	return out, nil
}

func (s *RedisStore) OfType(ctx context.Context, t model.EventType) ([]model.Event, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.typeKey(t), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: list %s events: %w", t, err)
	}
	out, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *RedisStore) SeenPostIDs(ctx context.Context) (map[int64]struct{}, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(all))
	for _, ev := range all {
		seen[ev.PostID] = struct{}{}
	}
	return seen, nil
}

// remove deletes the given events and every index entry pointing at them.
func (s *RedisStore) remove(ctx context.Context, events []model.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, ev := range events {
			member := strconv.FormatInt(ev.ID, 10)
			p.Del(ctx, s.itemKey(ev.ID))
			p.ZRem(ctx, s.allKey(), member)
			p.ZRem(ctx, s.typeKey(ev.Type), member)
			p.SRem(ctx, s.postKey(ev.Type, ev.PostID), member)
			if ev.CommentID != 0 {
				p.SRem(ctx, s.commentKey(ev.Type, ev.CommentID), member)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: delete events: %w", err)
	}
	return int64(len(events)), nil
}

func (s *RedisStore) deleteSet(ctx context.Context, key string) (int64, error) {
	ids, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("storage: members of %s: %w", key, err)
	}
	events, err := s.load(ctx, ids)
	if err != nil {
		return 0, err
	}
	n, err := s.remove(ctx, events)
	if err != nil {
		return 0, err
	}
	// drop members whose blob was already gone
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return n, fmt.Errorf("storage: clear %s: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) DeleteByPost(ctx context.Context, t model.EventType, postID int64) (int64, error) {
	return s.deleteSet(ctx, s.postKey(t, postID))
}

func (s *RedisStore) DeleteByComment(ctx context.Context, t model.EventType, commentID int64) (int64, error) {
	return s.deleteSet(ctx, s.commentKey(t, commentID))
}

func (s *RedisStore) ExistsForPost(ctx context.Context, t model.EventType, postID int64) (bool, error) {
	n, err := s.rdb.SCard(ctx, s.postKey(t, postID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("storage: exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ExistsForComment(ctx context.Context, t model.EventType, commentID int64) (bool, error) {
	n, err := s.rdb.SCard(ctx, s.commentKey(t, commentID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("storage: exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Prune(ctx context.Context, olderThan time.Time, maxEvents int) (int64, error) {
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
	doomed := make([]model.Event, 0, len(victims))
	for _, ev := range all {
		if _, ok := drop[ev.ID]; ok {
			doomed = append(doomed, ev)
		}
	}
	return s.remove(ctx, doomed)
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.rdb.ZCard(ctx, s.allKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("storage: count: %w", err)
	}
	return n, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by whoever created it.
func (s *RedisStore) Close() error {
	return nil
}
