package worker

import (
	"context"
	"log/slog"
	"time"

	"hackertok/internal/hackernews"
	"hackertok/internal/metrics"
	"hackertok/internal/model"
)

// FeedFetcher returns one page of a Hacker News feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed hackernews.Feed, page int) ([]model.Story, error)
}

// StoryIndexer stores stories for offline ranking and search.
type StoryIndexer interface {
	IndexStories(stories []model.Story) error
}

// FeedCollector polls Hacker News feeds and copies their first pages into
// the local index so rank --offline and search --local have candidates.
type FeedCollector struct {
	Client   FeedFetcher
	Index    StoryIndexer
	Feeds    []hackernews.Feed
	Pages    int // pages per feed and run
	Interval time.Duration
	Metrics  *metrics.Metrics
}

func (w *FeedCollector) Name() string { return "feed-collector" }

func (w *FeedCollector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 10 * time.Minute
	}
	if w.Pages <= 0 {
		w.Pages = 1
	}
	runEvery(ctx, w.Interval, func(ctx context.Context) { w.runOnce(ctx) })
	return nil
}

// runOnce collects every feed and returns how many stories were indexed.
func (w *FeedCollector) runOnce(ctx context.Context) int {
	started := time.Now()
	feeds := w.Feeds
	if len(feeds) == 0 {
		feeds = []hackernews.Feed{hackernews.FeedNews}
	}

	total, failed := 0, 0
	for _, feed := range feeds {
		var batch []model.Story
		for page := 1; page <= w.Pages; page++ {
			stories, err := w.Client.Fetch(ctx, feed, page)
			if err != nil {
				slog.Error("feed-collector: fetch error", "feed", feed, "page", page, "error", err)
				failed++
				break
			}
			if len(stories) == 0 {
				break
			}
			batch = append(batch, stories...)
		}
		batch = model.Dedupe(batch)
		if len(batch) == 0 {
			continue
		}
		if err := w.Index.IndexStories(batch); err != nil {
			slog.Error("feed-collector: index error", "feed", feed, "error", err)
			failed++
			continue
		}
		total += len(batch)
		slog.Info("feed-collector: completed for feed", "feed", feed, "indexed", len(batch))
	}

	status := metrics.StatusSuccess
	switch {
	case failed > 0 && total == 0:
		status = metrics.StatusFailure
	case total == 0:
		status = metrics.StatusEmpty
	}
	w.Metrics.ObserveWorkerRun(w.Name(), status, time.Since(started).Seconds())
	return total
}
