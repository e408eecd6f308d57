package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	// Clear relevant env vars
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Empty(t, cfg.InsightsAPIKey)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables
	os.Setenv("MINDWELL_DATA_DIR", "/tmp/test-mindwell")
	os.Setenv("MINDWELL_CACHE_MAX_ITEMS", "500")
	os.Setenv("MINDWELL_CACHE_TTL", "12h")
	os.Setenv("MINDWELL_LOG_LEVEL", "debug")
	os.Setenv("MINDWELL_INSIGHTS_API_KEY", "test-key")
	os.Setenv("MINDWELL_INSIGHTS_MODEL", "test-model")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-mindwell", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-key", cfg.InsightsAPIKey)
	assert.Equal(t, "test-model", cfg.InsightsModel)
}

func TestLiteConfig_ReportDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.mindwell"}

	path := cfg.ReportDBPath()

	assert.Equal(t, "/home/user/.mindwell/reports.db", path)
}

func TestLiteConfig_ExportDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.mindwell"}

	path := cfg.ExportDir()

	assert.Equal(t, "/home/user/.mindwell/exports", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "mindwell")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	// Verify directories exist
	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"MINDWELL_DATA_DIR",
		"MINDWELL_CACHE_MAX_ITEMS",
		"MINDWELL_CACHE_TTL",
		"MINDWELL_LOG_LEVEL",
		"MINDWELL_LOG_FORMAT",
		"MINDWELL_INSIGHTS_API_KEY",
		"MINDWELL_INSIGHTS_BASE_URL",
		"MINDWELL_INSIGHTS_MODEL",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
