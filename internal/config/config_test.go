package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://places.googleapis.com/v1", cfg.Google.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.ClassifyModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.ScoreModel)
	assert.Equal(t, "restaurant", cfg.Ingest.Query)
	assert.Equal(t, 50, cfg.Ingest.TargetCount)
	assert.Equal(t, 8, cfg.Ingest.MaxImages)
	assert.Equal(t, 5, cfg.Ingest.MaxReviews)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.RequestInterval)
	assert.Equal(t, 2*time.Second, cfg.Ingest.PageDelay)
	assert.Equal(t, 5, cfg.Ingest.MaxPages)
	assert.Equal(t, 3, cfg.Ingest.MaxAttempts)
	assert.InDelta(t, 0.0005, cfg.Ingest.DedupDegrees, 1e-9)
}

func TestLoadEnvOnlyCredentials(t *testing.T) {
	chTempDir(t)

	t.Setenv("TASTEVINE_GOOGLE_KEY", "env-google-key")
	t.Setenv("TASTEVINE_ANTHROPIC_KEY", "env-anthropic-key")
	t.Setenv("TASTEVINE_STORE_DATABASE_URL", "postgres://localhost/env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-google-key", cfg.Google.Key)
	assert.Equal(t, "env-anthropic-key", cfg.Anthropic.Key)
	assert.Equal(t, "postgres://localhost/env", cfg.Store.DatabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
  database_url: test.db
ingest:
  target_count: 5
  max_images: 2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Ingest.TargetCount)
	assert.Equal(t, 2, cfg.Ingest.MaxImages)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Ingest.MaxReviews)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.key")

	cfg.Google.Key = "g"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Anthropic.Key = "a"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/db"
	assert.NoError(t, cfg.Validate())

	// SQLite does not require a database URL.
	sqlite := &Config{}
	sqlite.Store.Driver = "sqlite"
	sqlite.Google.Key = "g"
	sqlite.Anthropic.Key = "a"
	assert.NoError(t, sqlite.Validate())
}
