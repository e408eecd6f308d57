// This file contains the lightweight configuration for standalone
// operation of the MCP server: no PostgreSQL, no Redis, a local SQLite
// archive only.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Cache settings
	CacheMaxItems int           // Maximum items in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Insights settings
	InsightsAPIKey  string // Optional: completion endpoint API key
	InsightsBaseURL string // Optional: completion endpoint base URL
	InsightsModel   string // Optional: completion model name

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".mindwell")

	return &LiteConfig{
		DataDir:       dataDir,
		CacheMaxItems: 1000,
		CacheTTL:      24 * time.Hour,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory
	if v := os.Getenv("MINDWELL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Cache settings
	if v := os.Getenv("MINDWELL_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("MINDWELL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// Insights endpoint
	cfg.InsightsAPIKey = os.Getenv("MINDWELL_INSIGHTS_API_KEY")
	cfg.InsightsBaseURL = os.Getenv("MINDWELL_INSIGHTS_BASE_URL")
	cfg.InsightsModel = os.Getenv("MINDWELL_INSIGHTS_MODEL")

	// Logging
	if v := os.Getenv("MINDWELL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MINDWELL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ReportDBPath returns the path to the report archive SQLite database.
func (c *LiteConfig) ReportDBPath() string {
	return filepath.Join(c.DataDir, "reports.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
