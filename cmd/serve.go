package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackertok/internal/config"
	"hackertok/internal/hackernews"
	"hackertok/internal/metrics"
	"hackertok/internal/search"
	"hackertok/internal/storage"
	"hackertok/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveNoDigest bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background workers and the metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		reg := prometheus.NewRegistry()
		m := metrics.New()
		if err := m.Register(reg); err != nil {
			return err
		}

		st, events, err := openEvents(cfg, m)
		if err != nil {
			return err
		}
		defer st.Close()

		idx, err := search.Open(cfg.Search.IndexPath)
		if err != nil {
			return err
		}
		defer idx.Close()

		feeds := make([]hackernews.Feed, 0, len(cfg.Workers.Feeds))
		for _, name := range cfg.Workers.Feeds {
			f, err := hackernews.ParseFeed(name)
			if err != nil {
				return err
			}
			feeds = append(feeds, f)
		}

		ws := []worker.Worker{
			&worker.FeedCollector{
				Client:   newHNClient(cfg),
				Index:    idx,
				Feeds:    feeds,
				Pages:    cfg.Workers.Pages,
				Interval: config.Duration(cfg.Workers.CollectInterval, 10*time.Minute),
				Metrics:  m,
			},
			&worker.Pruner{
				Store:     st,
				Retention: storage.Retention(cfg.Store),
				MaxEvents: cfg.Store.MaxEvents,
				Interval:  config.Duration(cfg.Workers.PruneInterval, time.Hour),
				Metrics:   m,
			},
		}
		if !serveNoDigest {
			ws = append(ws, &worker.DigestBuilder{
				Source:     idx,
				Store:      events,
				Feed:       cfg.Session.Feed,
				Title:      cfg.Digest.Title,
				TopN:       cfg.Digest.TopN,
				OutputDir:  cfg.Digest.OutputDir,
				Preface:    cfg.Digest.Preface,
				Postscript: cfg.Digest.Postscript,
				Params:     cfg.RankingParams(),
				Metrics:    m,
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("serve: metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("serve: metrics server failed", "error", err)
			}
		}()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		err = worker.NewManager(ws...).Start(ctx)

		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
		return err
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoDigest, "no-digest", false, "do not write daily digests")
	rootCmd.AddCommand(serveCmd)
}
