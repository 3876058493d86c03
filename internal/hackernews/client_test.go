package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firebaseServer(t *testing.T, ids []int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ids)
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/item/"), "%d.json", &id)
		switch {
		case id == 13:
			http.Error(w, "boom", http.StatusInternalServerError)
		case id == 14:
			json.NewEncoder(w).Encode(map[string]any{"id": id, "deleted": true})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"id": id, "type": "story", "by": fmt.Sprintf("user%d", id),
				"title": fmt.Sprintf("Story %d", id), "url": fmt.Sprintf("https://example.com/%d", id),
				"score": id * 10, "descendants": 3, "time": 1700000000,
			})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_FirebasePaging(t *testing.T) {
	var ids []int64
	for i := int64(1); i <= 7; i++ {
		ids = append(ids, i)
	}
	srv := firebaseServer(t, ids)
	c := NewClient(Options{BaseAPI: srv.URL, PageSize: 3})
	ctx := context.Background()

	p1, err := c.Fetch(ctx, FeedNews, 1)
	require.NoError(t, err)
	require.Len(t, p1, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{p1[0].ID, p1[1].ID, p1[2].ID})
	assert.Equal(t, "user1", p1[0].Author)
	assert.Equal(t, 10, p1[0].Score)
	assert.Equal(t, "example.com", p1[0].Domain())

	p3, err := c.Fetch(ctx, FeedNews, 3)
	require.NoError(t, err)
	require.Len(t, p3, 1)
	assert.Equal(t, int64(7), p3[0].ID)

	p4, err := c.Fetch(ctx, FeedNews, 4)
	require.NoError(t, err)
	assert.Empty(t, p4)
	assert.NotNil(t, p4)
}

func TestFetch_FirebaseDropsBrokenItems(t *testing.T) {
	srv := firebaseServer(t, []int64{12, 13, 14, 15})
	c := NewClient(Options{BaseAPI: srv.URL})
	got, err := c.Fetch(context.Background(), FeedNews, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].ID)
	assert.Equal(t, int64(15), got[1].ID)
}

func TestFetch_ListErrorIsNotEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseAPI: srv.URL})
	_, err := c.Fetch(context.Background(), FeedNewest, 1)
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestFetch_FeedAPI(t *testing.T) {
	var gotPath, gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		fmt.Fprint(w, `[
			{"id": 1, "title": "Link", "points": 50, "user": "alice", "time": 1700000000, "type": "link", "url": "https://www.example.com/a", "comments_count": 4},
			{"id": 2, "title": "Ask HN: Why?", "points": null, "user": "bob", "time": 1700000001, "type": "ask", "url": "item?id=2", "comments_count": 0}
		]`)
	}))
	defer srv.Close()

	c := NewClient(Options{FeedAPI: srv.URL + "/"})
	got, err := c.Fetch(context.Background(), FeedShow, 2)
	require.NoError(t, err)
	assert.Equal(t, "/show", gotPath)
	assert.Equal(t, "2", gotPage)
	require.Len(t, got, 2)

	assert.Equal(t, "alice", got[0].Author)
	assert.Equal(t, 50, got[0].Score)
	assert.Equal(t, 4, got[0].CommentCount)
	assert.Equal(t, "example.com", got[0].Domain())

	assert.Empty(t, got[1].URL, "relative URLs become text posts")
	assert.Zero(t, got[1].Score)
}

func TestSearch(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{
			"hits": [
				{"objectID": "101", "title": "Go 1.24 released", "url": "https://go.dev/blog", "author": "rsc", "points": 900, "num_comments": 300, "created_at_i": 1700000000},
				{"objectID": "102", "title": "", "url": null, "author": "x", "points": 1, "num_comments": 0, "created_at_i": 1},
				{"objectID": "abc", "title": "Bad id", "author": "y", "created_at_i": 1},
				{"objectID": "103", "title": "Text post", "url": null, "author": "z", "points": null, "num_comments": null, "created_at_i": 2}
			],
			"nbHits": 3, "nbPages": 1, "page": 0, "hitsPerPage": 20
		}`)
	}))
	defer srv.Close()

	c := NewClient(Options{AlgoliaAPI: srv.URL})
	res, err := c.Search(context.Background(), SearchParams{Query: "golang", Sort: SortDate})
	require.NoError(t, err)
	assert.Equal(t, "/search_by_date", gotPath)
	assert.Equal(t, "golang", gotQuery["query"][0])
	assert.Equal(t, "story", gotQuery["tags"][0])
	assert.Equal(t, "20", gotQuery["hitsPerPage"][0])

	require.Len(t, res.Hits, 2)
	assert.Equal(t, int64(101), res.Hits[0].ID)
	assert.Equal(t, "go.dev", res.Hits[0].Domain())
	assert.Equal(t, 900, res.Hits[0].Score)
	assert.Equal(t, int64(103), res.Hits[1].ID)
	assert.Empty(t, res.Hits[1].URL)
	assert.Equal(t, 3, res.NbHits)
}

func TestSearch_RelevanceEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"hits": []}`)
	}))
	defer srv.Close()
	c := NewClient(Options{AlgoliaAPI: srv.URL})
	res, err := c.Search(context.Background(), SearchParams{Query: "rust"})
	require.NoError(t, err)
	assert.Equal(t, "/search", gotPath)
	assert.Empty(t, res.Hits)
}

func TestParseFeed(t *testing.T) {
	f, err := ParseFeed("Top Stories")
	assert.Error(t, err)
	assert.Empty(t, f)

	f, err = ParseFeed("topstories")
	require.NoError(t, err)
	assert.Equal(t, FeedNews, f)

	f, err = ParseFeed(" SHOW ")
	require.NoError(t, err)
	assert.Equal(t, FeedShow, f)
	assert.Len(t, Feeds(), 6)
}
