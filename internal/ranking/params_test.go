package ranking

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_KeepsBaseForZeroFields(t *testing.T) {
	base := DefaultParams()
	got := Merge(base, Params{SkipPenalty: 0.5, HalfLife: time.Minute})
	assert.Equal(t, 0.5, got.SkipPenalty)
	assert.Equal(t, time.Minute, got.HalfLife)
	assert.Equal(t, base.AuthorBoost, got.AuthorBoost)
	assert.Equal(t, base.DiversityInterval, got.DiversityInterval)
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.yaml")
	content := "version: \"2024-06\"\nparams:\n  half_life: 5m\n  author_boost: 0.7\n  diversity_interval: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadCalibration(path, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, got.HalfLife)
	assert.Equal(t, 0.7, got.AuthorBoost)
	assert.Equal(t, 4, got.DiversityInterval)
	assert.Equal(t, 0.3, got.SkipPenalty)
}

func TestLoadCalibration_MissingFileFallsBack(t *testing.T) {
	base := DefaultParams()
	got, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.yaml"), base)
	require.Error(t, err)
	assert.Equal(t, base, got)
}

func TestLoadCalibration_InvalidYAMLFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("params: [unclosed"), 0o644))
	base := DefaultParams()
	got, err := LoadCalibration(path, base)
	require.Error(t, err)
	assert.Equal(t, base, got)
}

func TestLoadCalibration_EmptyPath(t *testing.T) {
	base := DefaultParams()
	got, err := LoadCalibration("", base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}
