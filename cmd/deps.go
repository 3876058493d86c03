package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"hackertok/internal/config"
	"hackertok/internal/hackernews"
	"hackertok/internal/metrics"
	"hackertok/internal/model"
	"hackertok/internal/search"
	"hackertok/internal/session"
	"hackertok/internal/storage"
	"hackertok/internal/upstream"
)

func newHNClient(cfg config.Config) *hackernews.Client {
	return hackernews.NewClient(hackernews.Options{
		BaseAPI:     cfg.HackerNews.BaseURL,
		FeedAPI:     cfg.HackerNews.FeedURL,
		AlgoliaAPI:  cfg.HackerNews.AlgoliaURL,
		Timeout:     config.Duration(cfg.HackerNews.Timeout, 0),
		Concurrency: cfg.HackerNews.Concurrency,
		PageSize:    cfg.HackerNews.PageSize,
	})
}

// openEvents opens the configured event store behind the timeout guard.
// The caller closes the returned store.
func openEvents(cfg config.Config, m *metrics.Metrics) (storage.Store, *storage.Guarded, error) {
	st, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, storage.NewGuarded(st, storage.GuardOptionsFrom(cfg.Store, m)), nil
}

func newVoter(cfg config.Config) *upstream.Client {
	return upstream.New(cfg.Upstream.Endpoint, cfg.Upstream.Token, config.Duration(cfg.Upstream.Timeout, 0)).
		WithVotePath(cfg.Upstream.VotePath)
}

// candidateSource picks the live feed or, offline, the local index. The
// returned close func releases the index.
func candidateSource(cfg config.Config, feed string, offline bool) (session.Supplier, func(), error) {
	if offline {
		idx, err := search.Open(cfg.Search.IndexPath)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil
	}
	f, err := hackernews.ParseFeed(feed)
	if err != nil {
		return nil, nil, err
	}
	client := newHNClient(cfg)
	return session.SupplierFunc(func(ctx context.Context, page int) ([]model.Story, error) {
		return client.Fetch(ctx, f, page)
	}), func() {}, nil
}

// fetchPages reads up to n pages from src, stopping at the first empty one.
func fetchPages(ctx context.Context, src session.Supplier, n int) ([]model.Story, error) {
	var out []model.Story
	for page := 1; page <= n; page++ {
		stories, err := src.Fetch(ctx, page)
		if err != nil {
			if len(out) > 0 {
				slog.Warn("fetch: stopping early", "page", page, "error", err)
				break
			}
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(stories) == 0 {
			break
		}
		out = append(out, stories...)
	}
	return model.Dedupe(out), nil
}
