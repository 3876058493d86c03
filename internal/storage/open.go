package storage

import (
	"fmt"
	"time"

	"hackertok/internal/config"
	"hackertok/internal/metrics"
	"hackertok/internal/redisclient"
)

// Open builds the backend selected by cfg.Store.Backend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return OpenSQLite(cfg.Store.Path)
	case "redis":
		return &ownedRedisStore{RedisStore: NewRedisStore(redisclient.New(cfg.Redis), cfg.Redis.Prefix)}, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Store.Backend)
	}
}

// GuardOptionsFrom reads the store timeouts from cfg.
func GuardOptionsFrom(cfg config.StoreConfig, m *metrics.Metrics) GuardOptions {
	return GuardOptions{
		ReadTimeout:  config.Duration(cfg.ReadTimeout, DefaultReadTimeout),
		WriteTimeout: config.Duration(cfg.WriteTimeout, DefaultWriteTimeout),
		ProbeTimeout: config.Duration(cfg.ProbeTimeout, DefaultProbeTimeout),
		Metrics:      m,
	}
}

// Retention returns how long events are kept, or 0 when retention is
// disabled.
func Retention(cfg config.StoreConfig) time.Duration {
	if cfg.Retention == "" || cfg.Retention == "0" {
		return 0
	}
	return config.Duration(cfg.Retention, 30*24*time.Hour)
}

// RetentionCutoff returns the prune cutoff for cfg relative to now, or the
// zero time when retention is disabled.
func RetentionCutoff(cfg config.StoreConfig, now time.Time) time.Time {
	d := Retention(cfg)
	if d == 0 {
		return time.Time{}
	}
	return now.Add(-d)
}

// ownedRedisStore closes the client it was opened with.
type ownedRedisStore struct {
	*RedisStore
}

func (s *ownedRedisStore) Close() error {
	return s.rdb.Close()
}
