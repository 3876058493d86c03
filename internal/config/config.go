package config

import (
	"log/slog"
	"strings"
	"time"

	"hackertok/internal/ranking"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"` // key prefix for the event store
}

// StoreConfig selects and tunes the event store.
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // memory, sqlite or redis
	Path         string `mapstructure:"path"`    // sqlite file
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	ProbeTimeout string `mapstructure:"probe_timeout"`
	Retention    string `mapstructure:"retention"` // e.g. "720h"; events older are pruned
	MaxEvents    int    `mapstructure:"max_events"`
}

// HackerNewsConfig points at the candidate sources.
type HackerNewsConfig struct {
	BaseURL     string `mapstructure:"base_url"`    // Firebase v0 API
	FeedURL     string `mapstructure:"feed_url"`    // optional paged feed API (hackerweb)
	AlgoliaURL  string `mapstructure:"algolia_url"` // search API
	Timeout     string `mapstructure:"timeout"`
	Concurrency int    `mapstructure:"concurrency"`
	PageSize    int    `mapstructure:"page_size"`
}

// SessionConfig tunes the swipe session controller.
type SessionConfig struct {
	Feed               string `mapstructure:"feed"`
	RefillThreshold    int    `mapstructure:"refill_threshold"`
	MaxBackgroundPages int    `mapstructure:"max_background_pages"`
	SkipThresholdMs    int64  `mapstructure:"skip_threshold_ms"`
	MinDwellMs         int64  `mapstructure:"min_dwell_ms"`
	MaxFetchFailures   int    `mapstructure:"max_fetch_failures"`
}

// RankingConfig overrides ranking parameters. Values from the calibration
// file win over Params, which win over the built-in defaults.
type RankingConfig struct {
	CalibrationFile string         `mapstructure:"calibration_file"`
	Params          ranking.Params `mapstructure:"params"`
}

// SearchConfig controls the local bleve index.
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// UpstreamConfig configures vote mirroring. Without a token the reader
// counts as signed out and no votes are sent.
type UpstreamConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	Timeout  string `mapstructure:"timeout"`
	VotePath string `mapstructure:"vote_path"`
}

// DigestConfig controls markdown digest output.
type DigestConfig struct {
	Title      string `mapstructure:"title"`
	TopN       int    `mapstructure:"top_n"`
	OutputDir  string `mapstructure:"output_dir"`
	Preface    string `mapstructure:"preface"`
	Postscript string `mapstructure:"postscript"`
}

// WorkersConfig controls the background workers started by serve.
type WorkersConfig struct {
	CollectInterval string   `mapstructure:"collect_interval"`
	Feeds           []string `mapstructure:"feeds"`
	Pages           int      `mapstructure:"pages"`
	PruneInterval   string   `mapstructure:"prune_interval"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Store      StoreConfig      `mapstructure:"store"`
	HackerNews HackerNewsConfig `mapstructure:"hackernews"`
	Session    SessionConfig    `mapstructure:"session"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Search     SearchConfig     `mapstructure:"search"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Digest     DigestConfig     `mapstructure:"digest"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "hackertok"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./hackertok.db"
	}
	if c.Store.ReadTimeout == "" {
		c.Store.ReadTimeout = "3s"
	}
	if c.Store.WriteTimeout == "" {
		c.Store.WriteTimeout = "5s"
	}
	if c.Store.ProbeTimeout == "" {
		c.Store.ProbeTimeout = "2s"
	}
	if c.Store.Retention == "" {
		c.Store.Retention = "720h"
	}
	if c.Store.MaxEvents == 0 {
		c.Store.MaxEvents = 5000
	}

	if c.HackerNews.BaseURL == "" {
		c.HackerNews.BaseURL = "https://hacker-news.firebaseio.com/v0"
	}
	if c.HackerNews.AlgoliaURL == "" {
		c.HackerNews.AlgoliaURL = "https://hn.algolia.com/api/v1"
	}
	if c.HackerNews.Timeout == "" {
		c.HackerNews.Timeout = "15s"
	}
	if c.HackerNews.Concurrency == 0 {
		c.HackerNews.Concurrency = 8
	}
	if c.HackerNews.PageSize == 0 {
		c.HackerNews.PageSize = 30
	}

	if c.Session.Feed == "" {
		c.Session.Feed = "news"
	}
	if c.Session.RefillThreshold == 0 {
		c.Session.RefillThreshold = 10
	}
	if c.Session.MaxBackgroundPages == 0 {
		c.Session.MaxBackgroundPages = 4
	}
	if c.Session.SkipThresholdMs == 0 {
		c.Session.SkipThresholdMs = 2000
	}
	if c.Session.MinDwellMs == 0 {
		c.Session.MinDwellMs = 500
	}
	if c.Session.MaxFetchFailures == 0 {
		c.Session.MaxFetchFailures = 3
	}

	if c.Search.IndexPath == "" {
		c.Search.IndexPath = "./hackertok.bleve"
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = "10s"
	}

	if c.Digest.Title == "" {
		c.Digest.Title = "Hacker News, ranked for you"
	}
	if c.Digest.TopN == 0 {
		c.Digest.TopN = 20
	}
	if c.Digest.OutputDir == "" {
		c.Digest.OutputDir = "./out"
	}

	if c.Workers.CollectInterval == "" {
		c.Workers.CollectInterval = "10m"
	}
	if len(c.Workers.Feeds) == 0 {
		c.Workers.Feeds = []string{"news", "newest", "show"}
	}
	if c.Workers.Pages == 0 {
		c.Workers.Pages = 2
	}
	if c.Workers.PruneInterval == "" {
		c.Workers.PruneInterval = "1h"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9464"
	}
}

// RankingParams resolves the effective ranking parameters: defaults, then
// configured overrides, then the calibration file if one is set.
func (c Config) RankingParams() ranking.Params {
	p := ranking.Merge(ranking.DefaultParams(), c.Ranking.Params)
	if c.Ranking.CalibrationFile != "" {
		// LoadCalibration logs and keeps p on failure
		p, _ = ranking.LoadCalibration(c.Ranking.CalibrationFile, p)
	}
	return p
}

// Duration parses s, falling back to def when s is empty or invalid.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		slog.Warn("config: invalid duration, using default", "value", s, "default", def)
		return def
	}
	return d
}

// LogLevel maps app.log_level onto a slog level.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
