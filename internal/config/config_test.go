package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderforge/order-export-conversion/internal/config"
)

// writeConfig writes a config file into a temp dir and returns its path. The
// directory settings always point inside the temp dir so loading never
// touches the working directory.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	content := "input_dir: " + filepath.Join(dir, "in") + "\n" +
		"output_dir: " + filepath.Join(dir, "out") + "\n" +
		"input_archive_dir: " + filepath.Join(dir, "archive") + "\n" +
		body
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "A2DKZN1W9ZO5KL", cfg.MerchantID)
	assert.Equal(t, "false", cfg.CancellationFlag)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "orders", cfg.Store.Collection)
	assert.Equal(t, "localhost", cfg.Store.Postgres.Host)
	assert.Equal(t, 5432, cfg.Store.Postgres.Port)

	wantStart := time.Date(2024, 12, 23, 13, 45, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 1, 2, 17, 15, 0, 0, time.UTC)
	assert.True(t, cfg.ReportWindow.Start.Equal(wantStart), "got %s", cfg.ReportWindow.Start)
	assert.True(t, cfg.ReportWindow.End.Equal(wantEnd), "got %s", cfg.ReportWindow.End)
}

func TestLoadMainConfigExplicitValues(t *testing.T) {
	path := writeConfig(t, `merchant_id: MERCHANT-42
cancellation_flag: "true"
report_window:
  start: 2025-01-01T00:00:00Z
  end: 2025-02-01T00:00:00Z
store:
  driver: memory
  collection: staging
log_level: debug
`)

	cfg, err := config.LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "MERCHANT-42", cfg.MerchantID)
	assert.Equal(t, "true", cfg.CancellationFlag)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "staging", cfg.Store.Collection)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2025, cfg.ReportWindow.Start.Year())
}

func TestLoadMainConfigCreatesDirectories(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.LoadMainConfig(path)
	require.NoError(t, err)

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadMainConfigEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PASSWORD", "hunter2")
	t.Setenv("POSTGRES_PORT", "5433")

	path := writeConfig(t, `store:
  postgres:
    host: ignored-by-env
`)

	cfg, err := config.LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Store.Postgres.Host)
	assert.Equal(t, "hunter2", cfg.Store.Postgres.Password)
	assert.Equal(t, 5433, cfg.Store.Postgres.Port)
}

func TestLoadMainConfigRejectsInvertedWindow(t *testing.T) {
	path := writeConfig(t, `report_window:
  start: 2025-02-01T00:00:00Z
  end: 2025-01-01T00:00:00Z
`)

	_, err := config.LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_window")
}

func TestLoadMainConfigRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, `store:
  driver: mongodb
`)

	_, err := config.LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store driver")
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	_, err := config.LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
