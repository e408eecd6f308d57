// Package mcp exposes the assessment engine to AI agents over the Model
// Context Protocol. The server runs standalone: scored reports are
// archived in a local SQLite database, no PostgreSQL or Redis required.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/config"
	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/insights"
	"github.com/mindwell-assessment-server/internal/reportstore"
	"github.com/mindwell-assessment-server/internal/scoring"
	"github.com/mindwell-assessment-server/pkg/narrative"
)

// Server wraps the MCP SDK server with the scoring engine and the local
// report archive.
type Server struct {
	config    *config.LiteConfig
	mcpServer *mcp.Server
	engine    *scoring.Engine
	store     reportstore.Store
	insights  *insights.Service
	logger    *logrus.Logger
}

// storeUpdater persists enriched reports back into the archive.
type storeUpdater struct {
	store reportstore.Store
}

func (u storeUpdater) UpdateInsights(ctx context.Context, report *domain.IndividualData) error {
	record := reportstore.NewRecord(report)
	record.InsightsReady = true
	return u.store.Save(ctx, record)
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server) error

// WithStore sets a custom report store.
func WithStore(store reportstore.Store) ServerOption {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// NewServer creates a new MCP server instance.
func NewServer(cfg *config.LiteConfig, opts ...ServerOption) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logrus.New(),
	}

	if cfg.LogFormat == "text" {
		server.logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		server.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	server.logger.SetLevel(level)

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.store == nil {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := reportstore.NewSQLiteStore(cfg.ReportDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create report store: %w", err)
		}
		server.store = store
	}

	server.engine = scoring.NewEngine(server.logger)

	if cfg.InsightsBaseURL != "" && cfg.InsightsAPIKey != "" {
		model := cfg.InsightsModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		client := narrative.NewClient(domain.InsightsConfig{
			BaseURL: cfg.InsightsBaseURL,
			APIKey:  cfg.InsightsAPIKey,
			Model:   model,
		})
		server.insights = insights.NewService(domain.InsightsConfig{
			Enabled:        true,
			MemoryCacheTTL: cfg.CacheTTL,
			MemoryCacheMax: cfg.CacheMaxItems,
		}, client, storeUpdater{server.store}, server.logger)
		server.logger.WithField("model", model).Info("Narrative insights enabled")
	}

	serverInfo := &mcp.Implementation{
		Name:    "mindwell-assessment-server",
		Version: "v0.1.0",
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)

	server.registerTools()

	server.logger.Info("MCP server initialized")
	return server, nil
}

// registerTools registers all assessment tools with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "score_assessment",
		Description: "Score a mental-wellness self-assessment submission. " +
			"Takes the person's details and raw questionnaire answers, returns " +
			"the per-domain report with scores, severity interpretations and " +
			"reference intervals, and archives it locally.",
	}, s.handleScoreAssessment)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "get_report",
		Description: "Retrieve a previously scored assessment report from " +
			"the local archive by submission id.",
	}, s.handleGetReport)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "list_domains",
		Description: "List the configured assessment domains: their " +
			"questions, scoring reference intervals and descriptions.",
	}, s.handleListDomains)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "export_reports",
		Description: "Export all archived assessment reports to a JSON " +
			"file for backup or transfer to another installation.",
	}, s.handleExportReports)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "import_reports",
		Description: "Import assessment reports from a JSON export file. " +
			"Submissions already present in the archive are skipped.",
	}, s.handleImportReports)

	s.logger.WithField("tool_count", 5).Info("Registered MCP tools")
}

// Start runs the MCP server over stdio until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting MCP server on stdio transport")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close report store")
			return err
		}
	}
	return nil
}
