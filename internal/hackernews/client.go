// Package hackernews supplies candidate stories: paged feeds from either a
// hackerweb-style feed API or the Firebase v0 list endpoints, and keyword
// search through Algolia.
package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseAPI    = "https://hacker-news.firebaseio.com/v0"
	DefaultAlgoliaAPI = "https://hn.algolia.com/api/v1"
	DefaultPageSize   = 30
)

// Options configures a Client. Zero values take the defaults.
type Options struct {
	BaseAPI     string // Firebase v0 API
	FeedAPI     string // paged feed API; when set Fetch uses it instead of Firebase lists
	AlgoliaAPI  string
	Timeout     time.Duration
	Concurrency int // parallel item lookups against Firebase
	PageSize    int // stories per Firebase page
	HTTPClient  *http.Client
}

// Client talks to the Hacker News APIs.
// Docs: https://github.com/HackerNews/API, https://hn.algolia.com/api
type Client struct {
	baseAPI     string
	feedAPI     string
	algoliaAPI  string
	client      *http.Client
	concurrency int
	pageSize    int
}

func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.BaseAPI) == "" {
		opts.BaseAPI = DefaultBaseAPI
	}
	if strings.TrimSpace(opts.AlgoliaAPI) == "" {
		opts.AlgoliaAPI = DefaultAlgoliaAPI
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseAPI:     strings.TrimRight(opts.BaseAPI, "/"),
		feedAPI:     strings.TrimRight(strings.TrimSpace(opts.FeedAPI), "/"),
		algoliaAPI:  strings.TrimRight(opts.AlgoliaAPI, "/"),
		client:      hc,
		concurrency: opts.Concurrency,
		pageSize:    opts.PageSize,
	}
}

// getJSON decodes the body of a GET into v. Any non-2xx status is an
// error, never an empty result.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: endpoint, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("hackernews: decode %s: %w", endpoint, err)
	}
	return nil
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hackernews: %s status %d", e.URL, e.Code)
}
