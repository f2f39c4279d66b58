package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "rehabit.db", cfg.DatabasePath)
	assert.Equal(t, 24, cfg.ForecastPeriods)
	assert.InDelta(t, 0.1, cfg.Contamination, 1e-9)
	assert.Equal(t, 10.0, cfg.Thresholds.OverworkHours)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FORECAST_PERIODS", "48")
	t.Setenv("ANOMALY_CONTAMINATION", "0.15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 48, cfg.ForecastPeriods)
	assert.InDelta(t, 0.15, cfg.Contamination, 1e-9)
}

func TestLoadIgnoresUnparseableEnv(t *testing.T) {
	t.Setenv("FORECAST_PERIODS", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.ForecastPeriods)
}

func TestLoadThresholdsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"overwork_hours: 9\nmin_breaks: 3\n"), 0o644))
	t.Setenv("THRESHOLDS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9.0, cfg.Thresholds.OverworkHours)
	assert.Equal(t, 3, cfg.Thresholds.MinBreaks)
	// Unset keys keep their defaults.
	assert.Equal(t, 2.0, cfg.Thresholds.LateWorkHours)
}

func TestLoadThresholdsFileMissing(t *testing.T) {
	t.Setenv("THRESHOLDS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
