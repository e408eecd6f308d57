// Package api exposes the assessment service over HTTP: submission
// intake, report retrieval, and a WebSocket stream that delivers the
// report again once narrative insights are attached.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/insights"
	"github.com/mindwell-assessment-server/internal/middleware"
	"github.com/mindwell-assessment-server/internal/scoring"
)

// ReportRepository is the persistence surface the HTTP layer needs.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.IndividualData) error
	GetBySubmissionID(ctx context.Context, submissionID string) (*domain.IndividualData, error)
	InsightsReady(ctx context.Context, submissionID string) (bool, error)
}

// HealthChecker reports backing-store liveness for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	config   domain.Config
	router   *gin.Engine
	server   *http.Server
	engine   *scoring.Engine
	reports  ReportRepository
	insights *insights.Service
	health   HealthChecker
	log      *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	config domain.Config,
	engine *scoring.Engine,
	reports ReportRepository,
	insightsService *insights.Service,
	health HealthChecker,
	logger *logrus.Logger,
) *Server {
	// Set Gin mode based on environment
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.AuditLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(corsMiddleware())

	server := &Server{
		config:   config,
		router:   router,
		engine:   engine,
		reports:  reports,
		insights: insightsService,
		health:   health,
		log:      logger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Router exposes the configured handler, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/assessments", s.handleSubmitAssessment)
		v1.GET("/reports/:id", s.handleGetReport)
		v1.GET("/reports/:id/stream", s.handleStreamReport)
		v1.GET("/domains", s.handleListDomains)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if s.health != nil {
		if err := s.health.Health(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			s.log.WithError(err).Warn("Health check failed")
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-API-Key")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
