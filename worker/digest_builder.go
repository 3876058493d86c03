package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hackertok/internal/digest"
	"hackertok/internal/metrics"
	"hackertok/internal/model"
	"hackertok/internal/ranking"
	"hackertok/internal/storage"
)

// CandidateSource pages through stories to rank. search.Index implements it.
type CandidateSource interface {
	Fetch(ctx context.Context, page int) ([]model.Story, error)
}

// DigestBuilder writes one ranked markdown digest per feed and UTC day from
// the locally indexed stories.
type DigestBuilder struct {
	Source     CandidateSource
	Store      *storage.Guarded
	Feed       string
	Title      string
	TopN       int
	Pages      int // candidate pages read from Source
	OutputDir  string
	Preface    string
	Postscript string
	Params     ranking.Params
	Interval   time.Duration
	Clock      func() time.Time
	Metrics    *metrics.Metrics
}

func (w *DigestBuilder) Name() string { return "digest-builder" }

func (w *DigestBuilder) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return err
	}
	runEvery(ctx, w.Interval, func(ctx context.Context) {
		if _, err := w.runOnce(ctx); err != nil {
			slog.Error("digest-builder: build failed", "feed", w.Feed, "error", err)
		}
	})
	return nil
}

// runOnce writes today's digest unless it already exists. It returns the
// written path, or "" when nothing was written.
func (w *DigestBuilder) runOnce(ctx context.Context) (string, error) {
	started := time.Now()
	now := time.Now()
	if w.Clock != nil {
		now = w.Clock()
	}

	path, err := w.build(ctx, now)
	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusFailure
	case path == "":
		status = metrics.StatusEmpty
	}
	w.Metrics.ObserveWorkerRun(w.Name(), status, time.Since(started).Seconds())
	return path, err
}

func (w *DigestBuilder) build(ctx context.Context, now time.Time) (string, error) {
	slug := digest.Slug(w.Feed, now)
	_, latest, err := digest.LatestFor(w.OutputDir, w.Feed)
	switch {
	case err == nil && filepath.Base(latest) == slug+".md":
		return "", nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		slog.Warn("digest-builder: cannot read previous digest", "feed", w.Feed, "error", err)
	}

	pages := w.Pages
	if pages <= 0 {
		pages = 5
	}
	var candidates []model.Story
	for page := 1; page <= pages; page++ {
		stories, err := w.Source.Fetch(ctx, page)
		if err != nil {
			return "", fmt.Errorf("digest-builder: candidates page %d: %w", page, err)
		}
		if len(stories) == 0 {
			break
		}
		candidates = append(candidates, stories...)
	}
	candidates = model.Dedupe(candidates)
	if len(candidates) == 0 {
		slog.Info("digest-builder: no candidates yet", "feed", w.Feed)
		return "", nil
	}

	events := w.Store.Events(ctx)
	ranked := ranking.Rank(candidates, events, ranking.Options{Now: now, Params: w.Params})
	d := digest.Build(w.Title, w.Feed, ranked, w.TopN, now)
	d.Preface = digest.ExpandVars(w.Preface, w.Feed, now)
	d.Postscript = digest.ExpandVars(w.Postscript, w.Feed, now)

	path, err := digest.Write(w.OutputDir, d)
	if err != nil {
		return "", err
	}
	slog.Info("digest-builder: wrote digest", "feed", w.Feed, "path", path, "items", len(d.Items))
	return path, nil
}
