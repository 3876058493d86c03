package ranking

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Params holds every tunable of the signal aggregator, scorer and diversity
// injector. Zero fields are filled from DefaultParams by Merge.
type Params struct {
	HalfLife     time.Duration `mapstructure:"half_life" yaml:"half_life"`
	SessionBoost float64       `mapstructure:"session_boost" yaml:"session_boost"`

	LikeWeight     float64 `mapstructure:"like_weight" yaml:"like_weight"`
	ClickWeight    float64 `mapstructure:"click_weight" yaml:"click_weight"`
	BookmarkWeight float64 `mapstructure:"bookmark_weight" yaml:"bookmark_weight"`

	ShortDwellMs          int64   `mapstructure:"short_dwell_ms" yaml:"short_dwell_ms"`
	DwellSaturationMs     int64   `mapstructure:"dwell_saturation_ms" yaml:"dwell_saturation_ms"`
	ShortDwellKeywordCost float64 `mapstructure:"short_dwell_keyword_cost" yaml:"short_dwell_keyword_cost"`
	DwellKeywordWeight    float64 `mapstructure:"dwell_keyword_weight" yaml:"dwell_keyword_weight"`

	ProximityBand  float64 `mapstructure:"proximity_band" yaml:"proximity_band"`
	ProximityBoost float64 `mapstructure:"proximity_boost" yaml:"proximity_boost"`

	AuthorThreshold float64 `mapstructure:"author_threshold" yaml:"author_threshold"`
	AuthorBoost     float64 `mapstructure:"author_boost" yaml:"author_boost"`
	DomainThreshold float64 `mapstructure:"domain_threshold" yaml:"domain_threshold"`
	DomainBoost     float64 `mapstructure:"domain_boost" yaml:"domain_boost"`

	HighDwellAuthorBoost    float64 `mapstructure:"high_dwell_author_boost" yaml:"high_dwell_author_boost"`
	HighDwellDomainBoost    float64 `mapstructure:"high_dwell_domain_boost" yaml:"high_dwell_domain_boost"`
	ShortDwellAuthorPenalty float64 `mapstructure:"short_dwell_author_penalty" yaml:"short_dwell_author_penalty"`
	ShortDwellDomainPenalty float64 `mapstructure:"short_dwell_domain_penalty" yaml:"short_dwell_domain_penalty"`

	KeywordDivisor float64 `mapstructure:"keyword_divisor" yaml:"keyword_divisor"`
	KeywordCap     float64 `mapstructure:"keyword_cap" yaml:"keyword_cap"`
	TopicThreshold float64 `mapstructure:"topic_threshold" yaml:"topic_threshold"`
	TopicDivisor   float64 `mapstructure:"topic_divisor" yaml:"topic_divisor"`
	TopicCap       float64 `mapstructure:"topic_cap" yaml:"topic_cap"`

	SkipPenalty float64 `mapstructure:"skip_penalty" yaml:"skip_penalty"`

	DiversityInterval int `mapstructure:"diversity_interval" yaml:"diversity_interval"`
}

// DefaultParams returns the calibrated defaults.
func DefaultParams() Params {
	return Params{
		HalfLife:     10 * time.Minute,
		SessionBoost: 2,

		LikeWeight:     1.0,
		ClickWeight:    1.2,
		BookmarkWeight: 1.5,

		ShortDwellMs:          2000,
		DwellSaturationMs:     10000,
		ShortDwellKeywordCost: 0.3,
		DwellKeywordWeight:    0.5,

		ProximityBand:  0.5,
		ProximityBoost: 0.3,

		AuthorThreshold: 0.3,
		AuthorBoost:     0.5,
		DomainThreshold: 0.3,
		DomainBoost:     0.25,

		HighDwellAuthorBoost:    0.2,
		HighDwellDomainBoost:    0.15,
		ShortDwellAuthorPenalty: 0.1,
		ShortDwellDomainPenalty: 0.1,

		KeywordDivisor: 3,
		KeywordCap:     0.4,
		TopicThreshold: 0.3,
		TopicDivisor:   3,
		TopicCap:       0.35,

		SkipPenalty: 0.3,

		DiversityInterval: 5,
	}
}

// Merge returns base with every non-zero field of override applied.
func Merge(base, override Params) Params {
	out := base
	setDur(&out.HalfLife, override.HalfLife)
	setF(&out.SessionBoost, override.SessionBoost)
	setF(&out.LikeWeight, override.LikeWeight)
	setF(&out.ClickWeight, override.ClickWeight)
	setF(&out.BookmarkWeight, override.BookmarkWeight)
	setI64(&out.ShortDwellMs, override.ShortDwellMs)
	setI64(&out.DwellSaturationMs, override.DwellSaturationMs)
	setF(&out.ShortDwellKeywordCost, override.ShortDwellKeywordCost)
	setF(&out.DwellKeywordWeight, override.DwellKeywordWeight)
	setF(&out.ProximityBand, override.ProximityBand)
	setF(&out.ProximityBoost, override.ProximityBoost)
	setF(&out.AuthorThreshold, override.AuthorThreshold)
	setF(&out.AuthorBoost, override.AuthorBoost)
	setF(&out.DomainThreshold, override.DomainThreshold)
	setF(&out.DomainBoost, override.DomainBoost)
	setF(&out.HighDwellAuthorBoost, override.HighDwellAuthorBoost)
	setF(&out.HighDwellDomainBoost, override.HighDwellDomainBoost)
	setF(&out.ShortDwellAuthorPenalty, override.ShortDwellAuthorPenalty)
	setF(&out.ShortDwellDomainPenalty, override.ShortDwellDomainPenalty)
	setF(&out.KeywordDivisor, override.KeywordDivisor)
	setF(&out.KeywordCap, override.KeywordCap)
	setF(&out.TopicThreshold, override.TopicThreshold)
	setF(&out.TopicDivisor, override.TopicDivisor)
	setF(&out.TopicCap, override.TopicCap)
	setF(&out.SkipPenalty, override.SkipPenalty)
	if override.DiversityInterval > 0 {
		out.DiversityInterval = override.DiversityInterval
	}
	return out
}

func setF(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func setI64(dst *int64, v int64) {
	if v != 0 {
		*dst = v
	}
}

func setDur(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

// calibrationFile is the on-disk shape of a ranking calibration file.
type calibrationFile struct {
	Version string `yaml:"version"`
	Params  Params `yaml:"params"`
}

// LoadCalibration reads a YAML calibration file and merges it over base.
// On any error base is returned unchanged together with the error, so
// callers can log and keep ranking with known-good values.
func LoadCalibration(path string, base Params) (Params, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("ranking: calibration file unreadable, using defaults", "path", path, "error", err)
		return base, fmt.Errorf("ranking: read calibration: %w", err)
	}
	var f calibrationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		slog.Warn("ranking: calibration file invalid, using defaults", "path", path, "error", err)
		return base, fmt.Errorf("ranking: parse calibration: %w", err)
	}
	merged := Merge(base, f.Params)
	if merged != base {
		slog.Info("ranking: calibration applied", "path", path, "version", f.Version)
	}
	return merged, nil
}
