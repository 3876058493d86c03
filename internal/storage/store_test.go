package storage

import (
	"context"
	"testing"
	"time"

	"hackertok/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.UnixMilli(1_700_000_000_000)

func openSQLiteTest(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openRedisTest(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, "test")
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLiteTest(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, openRedisTest(t)) })
}

func ev(t model.EventType, postID int64, offset time.Duration) *model.Event {
	return &model.Event{
		Type:      t,
		PostID:    postID,
		Timestamp: base.Add(offset).UnixMilli(),
		Score:     42,
		Author:    "pg",
		Domain:    "paulgraham.com",
		Title:     "How to Do Great Work",
		URL:       "https://paulgraham.com/greatwork.html",
		Topics:    []string{"culture"},
	}
}

func TestStore_AppendAndAll(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		second := ev(model.EventDwell, 2, time.Second)
		second.DwellMs = 3500
		first := ev(model.EventLike, 1, 0)

		require.NoError(t, s.Append(ctx, second))
		require.NoError(t, s.Append(ctx, first))
		assert.NotZero(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, int64(1), all[0].PostID, "oldest first")
		assert.Equal(t, int64(2), all[1].PostID)
		assert.Equal(t, int64(3500), all[1].DwellMs)
		assert.Equal(t, "pg", all[0].Author)
		assert.Equal(t, "paulgraham.com", all[0].Domain)
		assert.Equal(t, []string{"culture"}, all[0].Topics)
		assert.Equal(t, first.ID, all[0].ID)
	})
}

func TestStore_CommentFields(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := ev(model.EventCommentLike, 10, 0)
		e.CommentID = 99
		e.CommentUser = "dang"
		e.CommentContent = "Please keep it civil."
		e.CommentTime = 1_700_000_000
		require.NoError(t, s.Append(ctx, e))

		ok, err := s.ExistsForComment(ctx, model.EventCommentLike, 99)
		require.NoError(t, err)
		assert.True(t, ok)

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "dang", all[0].CommentUser)
		assert.Equal(t, "Please keep it civil.", all[0].CommentContent)

		n, err := s.DeleteByComment(ctx, model.EventCommentLike, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		ok, err = s.ExistsForComment(ctx, model.EventCommentLike, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_OfTypeNewestFirst(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, ev(model.EventLike, 1, 0)))
		require.NoError(t, s.Append(ctx, ev(model.EventSkip, 2, time.Second)))
		require.NoError(t, s.Append(ctx, ev(model.EventLike, 3, 2*time.Second)))

		likes, err := s.OfType(ctx, model.EventLike)
		require.NoError(t, err)
		require.Len(t, likes, 2)
		assert.Equal(t, int64(3), likes[0].PostID)
		assert.Equal(t, int64(1), likes[1].PostID)

		none, err := s.OfType(ctx, model.EventBookmark)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_SeenPostIDs(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, ev(model.EventNavigate, 1, 0)))
		require.NoError(t, s.Append(ctx, ev(model.EventSkip, 2, 0)))
		require.NoError(t, s.Append(ctx, ev(model.EventDwell, 2, 0)))

		seen, err := s.SeenPostIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, seen, 2)
		assert.Contains(t, seen, int64(1))
		assert.Contains(t, seen, int64(2))
	})
}

func TestStore_LikeUnlikeRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, ev(model.EventSkip, 5, 0)))
		before, err := s.All(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Append(ctx, ev(model.EventLike, 7, time.Second)))
		require.NoError(t, s.Append(ctx, ev(model.EventLike, 7, 2*time.Second)))
		ok, err := s.ExistsForPost(ctx, model.EventLike, 7)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := s.DeleteByPost(ctx, model.EventLike, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		after, err := s.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		ok, err = s.ExistsForPost(ctx, model.EventLike, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_DeleteOnlyMatchingType(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, ev(model.EventLike, 7, 0)))
		require.NoError(t, s.Append(ctx, ev(model.EventBookmark, 7, 0)))

		_, err := s.DeleteByPost(ctx, model.EventLike, 7)
		require.NoError(t, err)
		ok, err := s.ExistsForPost(ctx, model.EventBookmark, 7)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := s.DeleteByPost(ctx, model.EventLike, 12345)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_Prune(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i := 0; i < 6; i++ {
			require.NoError(t, s.Append(ctx, ev(model.EventNavigate, int64(i+1), time.Duration(i)*time.Hour)))
		}

		n, err := s.Prune(ctx, base.Add(2*time.Hour), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = s.Prune(ctx, time.Time{}, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{4, 5, 6}, []int64{all[0].PostID, all[1].PostID, all[2].PostID})

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		n, err = s.Prune(ctx, time.Time{}, 0)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_Ping(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Append(context.Background(), ev(model.EventLike, 1, 0)), ErrClosed)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrClosed)
}

func TestSummarize(t *testing.T) {
	events := []model.Event{*ev(model.EventLike, 1, 0), *ev(model.EventLike, 2, time.Minute), *ev(model.EventSkip, 3, time.Hour)}
	st := Summarize(events)
	assert.Equal(t, int64(3), st.Total)
	assert.Equal(t, int64(2), st.ByType[model.EventLike])
	assert.Equal(t, base, st.Oldest)
	assert.Equal(t, base.Add(time.Hour), st.Newest)
}
