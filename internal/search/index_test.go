package search

import (
	"context"
	"testing"

	"hackertok/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func sampleStories() []model.Story {
	return []model.Story{
		{ID: 1, Title: "Rust compiler internals explained", URL: "https://blog.rust-lang.org/x", Author: "steveklabnik", Time: 1700000100, Score: 320, CommentCount: 88},
		{ID: 2, Title: "A gardening journal", Author: "greenthumb", Time: 1700000300, Score: 12},
		{ID: 3, Title: "Writing a Go scheduler", URL: "https://go.dev/blog/sched", Author: "rsc", Time: 1700000200, Score: 150},
	}
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexStories(sampleStories()))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	hits, err := idx.Search("rust", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	got := hits[0].Story
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Rust compiler internals explained", got.Title)
	assert.Equal(t, "steveklabnik", got.Author)
	assert.Equal(t, "https://blog.rust-lang.org/x", got.URL)
	assert.Equal(t, 320, got.Score)
	assert.Equal(t, 88, got.CommentCount)
	assert.Equal(t, int64(1700000100), got.Time)
	assert.Greater(t, hits[0].Relevance, 0.0)
}

func TestSearchByAuthorField(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexStories(sampleStories()))

	hits, err := idx.Search("by:rsc", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(3), hits[0].Story.ID)
}

func TestReindexReplaces(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexStories(sampleStories()))
	updated := sampleStories()[0]
	updated.Score = 999
	require.NoError(t, idx.IndexStories([]model.Story{updated}))

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	hits, err := idx.Search("rust", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, 999, hits[0].Story.Score)
}

func TestFetchNewestFirst(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexStories(sampleStories()))

	page, err := idx.Fetch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{page[0].ID, page[1].ID, page[2].ID})

	empty, err := idx.Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestIndexStoriesEmpty(t *testing.T) {
	idx := newTestIndex(t)
	assert.NoError(t, idx.IndexStories(nil))
}

func TestSearch_StemmedTitleWords(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexStories(sampleStories()))

	for query, want := range map[string]int64{
		"compiler":        1,
		"scheduler":       3,
		"gardening":       2,
		"title:scheduler": 3,
	} {
		hits, err := idx.Search(query, 10)
		require.NoError(t, err, query)
		require.Len(t, hits, 1, query)
		assert.Equal(t, want, hits[0].Story.ID, query)
	}
}
