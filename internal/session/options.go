package session

import (
	"time"

	"hackertok/internal/config"
	"hackertok/internal/metrics"
)

// OptionsFrom maps the session and ranking sections of cfg onto Options.
func OptionsFrom(cfg config.Config, voter Voter, m *metrics.Metrics) Options {
	s := cfg.Session
	return Options{
		RefillThreshold:    s.RefillThreshold,
		MaxBackgroundPages: s.MaxBackgroundPages,
		SkipThreshold:      time.Duration(s.SkipThresholdMs) * time.Millisecond,
		MinDwell:           time.Duration(s.MinDwellMs) * time.Millisecond,
		MaxFetchFailures:   s.MaxFetchFailures,
		Params:             cfg.RankingParams(),
		Voter:              voter,
		Metrics:            m,
	}
}
