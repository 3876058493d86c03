package hackernews

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"hackertok/internal/model"
)

// Feed names a story listing.
type Feed string

const (
	FeedNews   Feed = "news"
	FeedNewest Feed = "newest"
	FeedBest   Feed = "best"
	FeedAsk    Feed = "ask"
	FeedShow   Feed = "show"
	FeedJobs   Feed = "jobs"
)

var firebaseLists = map[Feed]string{
	FeedNews:   "topstories",
	FeedNewest: "newstories",
	FeedBest:   "beststories",
	FeedAsk:    "askstories",
	FeedShow:   "showstories",
	FeedJobs:   "jobstories",
}

// Feeds lists the supported feeds.
func Feeds() []Feed {
	return []Feed{FeedNews, FeedNewest, FeedBest, FeedAsk, FeedShow, FeedJobs}
}

// ParseFeed accepts a feed name, also tolerating Firebase list names such
// as "topstories".
func ParseFeed(s string) (Feed, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, list := range firebaseLists {
		if s == string(f) || s == list {
			return f, nil
		}
	}
	return "", fmt.Errorf("hackernews: unknown feed %q", s)
}

// Fetch returns page (1-based) of feed. An empty slice with a nil error
// means the feed has no more stories.
func (c *Client) Fetch(ctx context.Context, feed Feed, page int) ([]model.Story, error) {
	if page < 1 {
		page = 1
	}
	if c.feedAPI != "" {
		return c.fetchFeedAPI(ctx, feed, page)
	}
	return c.fetchFirebasePage(ctx, feed, page)
}

// feedStory is a story as served by the hackerweb feed API.
type feedStory struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Points        *int   `json:"points"`
	User          string `json:"user"`
	Time          int64  `json:"time"`
	Type          string `json:"type"`
	URL           string `json:"url"`
	CommentsCount int    `json:"comments_count"`
}

func (c *Client) fetchFeedAPI(ctx context.Context, feed Feed, page int) ([]model.Story, error) {
	endpoint := fmt.Sprintf("%s/%s?page=%d", c.feedAPI, url.PathEscape(string(feed)), page)
	var raw []feedStory
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Story, 0, len(raw))
	for _, it := range raw {
		if it.ID <= 0 {
			continue
		}
		s := model.Story{
			ID:           it.ID,
			Title:        it.Title,
			Author:       it.User,
			Time:         it.Time,
			CommentCount: it.CommentsCount,
		}
		if it.Points != nil && *it.Points > 0 {
			s.Score = *it.Points
		}
		if model.IsHTTPURL(it.URL) {
			s.URL = it.URL
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) fetchFirebasePage(ctx context.Context, feed Feed, page int) ([]model.Story, error) {
	list, ok := firebaseLists[feed]
	if !ok {
		return nil, fmt.Errorf("hackernews: unknown feed %q", feed)
	}
	ids, err := c.fetchIDs(ctx, list)
	if err != nil {
		return nil, err
	}
	start := (page - 1) * c.pageSize
	if start >= len(ids) {
		return []model.Story{}, nil
	}
	end := start + c.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	slog.Debug("hackernews: fetching items", "list", list, "page", page, "count", end-start)
	return c.itemsByIDs(ctx, ids[start:end])
}

// fetchIDs loads a list endpoint such as topstories or newstories.
func (c *Client) fetchIDs(ctx context.Context, list string) ([]int64, error) {
	var ids []int64
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s.json", c.baseAPI, url.PathEscape(list)), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// hnItem mirrors the subset of Firebase item fields we use.
type hnItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
	Score       int    `json:"score"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Item fetches one story by ID.
func (c *Client) Item(ctx context.Context, id int64) (model.Story, error) {
	var it hnItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseAPI, id), &it); err != nil {
		return model.Story{}, err
	}
	if it.ID == 0 || it.Deleted || it.Dead {
		return model.Story{}, fmt.Errorf("hackernews: item %d unavailable", id)
	}
	return convertItem(it), nil
}

// itemsByIDs resolves ids with bounded concurrency, keeping list order.
// Items that fail to resolve are dropped.
func (c *Client) itemsByIDs(ctx context.Context, ids []int64) ([]model.Story, error) {
	if len(ids) == 0 {
		return []model.Story{}, nil
	}
	type result struct {
		idx   int
		story model.Story
		err   error
	}
	out := make([]result, len(ids))
	sem := make(chan struct{}, c.concurrency)
	done := make(chan result, len(ids))
	for i, id := range ids {
		i, id := i, id
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			ictx, cancel := context.WithTimeout(ctx, 8*time.Second)
			defer cancel()
			s, err := c.Item(ictx, id)
			done <- result{idx: i, story: s, err: err}
		}()
	}
	var failed int
	for range ids {
		r := <-done
		if r.err != nil {
			failed++
			continue
		}
		out[r.idx] = r
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed == len(ids) {
		return nil, fmt.Errorf("hackernews: all %d items failed to resolve", failed)
	}
	stories := make([]model.Story, 0, len(ids))
	for _, r := range out {
		if r.story.ID != 0 {
			stories = append(stories, r.story)
		}
	}
	return stories, nil
}

func convertItem(h hnItem) model.Story {
	s := model.Story{
		ID:           h.ID,
		Title:        strings.TrimSpace(h.Title),
		Author:       h.By,
		Time:         h.Time,
		Score:        h.Score,
		CommentCount: h.Descendants,
	}
	if s.Score < 0 {
		s.Score = 0
	}
	if u := strings.TrimSpace(h.URL); model.IsHTTPURL(u) {
		s.URL = u
	}
	return s
}
