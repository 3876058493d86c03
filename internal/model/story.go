package model

import (
	"net/url"
	"strings"
)

// Story is a candidate item eligible for ranking.
type Story struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url,omitempty"` // empty for text-only posts
	Author       string `json:"by"`
	Time         int64  `json:"time"` // unix seconds
	Score        int    `json:"score"`
	CommentCount int    `json:"descendants"`
}

// Domain returns the story's hostname without a leading "www.", or "" for
// text posts and URLs that do not parse.
func (s Story) Domain() string {
	return ExtractDomain(s.URL)
}

// DiscussionURL links to the story's Hacker News comment page.
func (s Story) DiscussionURL() string {
	return "https://news.ycombinator.com/item?id=" + itoa(s.ID)
}

// ExtractDomain pulls the hostname from an absolute URL, stripping "www.".
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsHTTPURL reports whether raw is an absolute http(s) URL.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Dedupe drops repeated IDs, keeping the first occurrence.
func Dedupe(stories []Story) []Story {
	seen := make(map[int64]struct{}, len(stories))
	out := make([]Story, 0, len(stories))
	for _, s := range stories {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Index maps stories by ID.
func Index(stories []Story) map[int64]Story {
	m := make(map[int64]Story, len(stories))
	for _, s := range stories {
		m[s.ID] = s
	}
	return m
}
