package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.Example.com/a?b=c": "example.com",
		"http://blog.golang.org/x":      "blog.golang.org",
		"https://example.com:8443/":     "example.com",
		"":                              "",
		"not a url":                     "",
		"/relative/path":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractDomain(in), in)
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://example.com"))
	assert.True(t, IsHTTPURL("http://example.com/x"))
	assert.False(t, IsHTTPURL("ftp://example.com"))
	assert.False(t, IsHTTPURL("example.com"))
	assert.False(t, IsHTTPURL(""))
}

func TestDedupeKeepsFirst(t *testing.T) {
	in := []Story{{ID: 1, Title: "a"}, {ID: 2}, {ID: 1, Title: "b"}, {ID: 3}}
	out := Dedupe(in)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Title)
	assert.Equal(t, int64(3), out[2].ID)
}

func TestDiscussionURL(t *testing.T) {
	assert.Equal(t, "https://news.ycombinator.com/item?id=42", Story{ID: 42}.DiscussionURL())
}

func TestParseEventType(t *testing.T) {
	for _, et := range EventTypes() {
		got, err := ParseEventType(string(et))
		require.NoError(t, err)
		assert.Equal(t, et, got)
	}
	_, err := ParseEventType("upvote")
	assert.Error(t, err)
}

func TestNewStoryEvent(t *testing.T) {
	s := Story{ID: 7, Title: "Go 1.24 released", URL: "https://www.go.dev/blog", Author: "rsc", Score: 300, CommentCount: 12}
	now := time.UnixMilli(1_700_000_000_000)
	classify := func(title, domain string) []string { return []string{"programming"} }

	ev := NewStoryEvent(EventLike, s, now, classify)
	assert.Equal(t, EventLike, ev.Type)
	assert.Equal(t, int64(7), ev.PostID)
	assert.Equal(t, now.UnixMilli(), ev.Timestamp)
	assert.Equal(t, "go.dev", ev.Domain)
	assert.Equal(t, "rsc", ev.Author)
	assert.Equal(t, 300, ev.Score)
	assert.Equal(t, 12, ev.CommentCount)
	assert.Equal(t, []string{"programming"}, ev.Topics)
	assert.Equal(t, now, ev.Time())

	assert.Nil(t, NewStoryEvent(EventSkip, s, now, nil).Topics)
}
