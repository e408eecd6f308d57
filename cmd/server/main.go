package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/api"
	"github.com/mindwell-assessment-server/internal/config"
	"github.com/mindwell-assessment-server/internal/database"
	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/insights"
	"github.com/mindwell-assessment-server/internal/repository"
	"github.com/mindwell-assessment-server/internal/scoring"
	"github.com/mindwell-assessment-server/pkg/narrative"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Connect to the database and run migrations
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationRunner, err := database.NewMigrationRunner(
		configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := migrationRunner.Up(ctx); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	migrationRunner.Close()

	// Wire the scoring engine and persistence
	engine := scoring.NewEngine(logger)
	reports := repository.NewReportRepository(db.Pool, logger)

	// Wire narrative insights: Redis cache and circuit-broken client. A
	// missing Redis or disabled insights degrade to empty narratives.
	var generator narrative.Generator
	if cfg.Insights.Enabled {
		client := narrative.NewClient(cfg.Insights)

		var cache *narrative.Cache
		if cfg.Cache.RedisURL != "" {
			cache, err = narrative.NewCache(cfg.Cache)
			if err != nil {
				logger.WithError(err).Warn("Narrative cache unavailable, continuing without Redis")
				cache = nil
			} else {
				defer cache.Close()
			}
		}

		generator = narrative.NewResilientClient(client, cache, cfg.Insights.Model, logger)
	}
	insightsService := insights.NewService(cfg.Insights, generator, reports, logger)

	// Start the HTTP server
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting assessment server")

	server := api.NewServer(*cfg, engine, reports, insightsService, db, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
