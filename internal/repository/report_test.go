package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mindwell-assessment-server/internal/database"
	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/scoring"
)

// generateTestPassword creates a random password for test databases
func generateTestPassword() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "test_fallback_password_123"
	}
	return "test_" + hex.EncodeToString(bytes)
}

func setupTestDB(t *testing.T) (*database.DB, func()) {
	if os.Getenv("SKIP_DOCKER_TESTS") != "" {
		t.Skip("Docker-based tests disabled via SKIP_DOCKER_TESTS")
	}

	ctx := context.Background()
	testPassword := generateTestPassword()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping: could not start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	config := domain.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		Database:        "testdb",
		Username:        "testuser",
		Password:        testPassword,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(ctx, config, logger)
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}

	databaseURL := "postgres://testuser:" + testPassword + "@" + host + ":" + port.Port() + "/testdb?sslmode=disable"
	migrationRunner, err := database.NewMigrationRunner(databaseURL, "../../migrations", logger)
	if err != nil {
		t.Fatalf("Failed to create migration runner: %v", err)
	}
	if err := migrationRunner.Up(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	migrationRunner.Close()

	cleanup := func() {
		db.Close()
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func sampleReport(t *testing.T) *domain.IndividualData {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	engine := scoring.NewEngine(logger)

	answers := map[string]any{}
	for i := 1; i <= 8; i++ {
		answers["dep-"+string(rune('0'+i))] = 2
	}

	return engine.GenerateReport(&domain.Submission{
		SubmissionID:   uuid.New().String(),
		FirstName:      "Ada",
		LastName:       "Byron",
		Email:          "ada@example.com",
		AssessmentDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Answers:        answers,
	})
}

func TestReportRepository_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReportRepository(db.Pool, logrus.New())
	report := sampleReport(t)

	if err := repo.Create(ctx, report); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetBySubmissionID(ctx, report.IndividualID)
	if err != nil {
		t.Fatalf("GetBySubmissionID failed: %v", err)
	}

	if got.IndividualID != report.IndividualID {
		t.Errorf("IndividualID = %s, want %s", got.IndividualID, report.IndividualID)
	}
	if len(got.Domains) != len(report.Domains) {
		t.Errorf("domain count = %d, want %d", len(got.Domains), len(report.Domains))
	}
	for i := range got.Domains {
		if got.Domains[i].Name != report.Domains[i].Name {
			t.Errorf("domain %d = %s, want %s (order must survive persistence)",
				i, got.Domains[i].Name, report.Domains[i].Name)
		}
	}
}

func TestReportRepository_DuplicateSubmission(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReportRepository(db.Pool, logrus.New())
	report := sampleReport(t)

	if err := repo.Create(ctx, report); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	err := repo.Create(ctx, report)
	if !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Errorf("second Create error = %v, want ErrDuplicateSubmission", err)
	}
}

func TestReportRepository_UpdateInsights(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReportRepository(db.Pool, logrus.New())
	report := sampleReport(t)

	if err := repo.Create(ctx, report); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ready, err := repo.InsightsReady(ctx, report.IndividualID)
	if err != nil {
		t.Fatalf("InsightsReady failed: %v", err)
	}
	if ready {
		t.Error("insights should not be ready before UpdateInsights")
	}

	insights := make([]string, len(report.Domains))
	for i := range insights {
		insights[i] = "narrative for " + report.Domains[i].Name
	}
	withInsights, err := report.WithInsights(insights)
	if err != nil {
		t.Fatalf("WithInsights failed: %v", err)
	}

	if err := repo.UpdateInsights(ctx, withInsights); err != nil {
		t.Fatalf("UpdateInsights failed: %v", err)
	}

	got, err := repo.GetBySubmissionID(ctx, report.IndividualID)
	if err != nil {
		t.Fatalf("GetBySubmissionID failed: %v", err)
	}
	for i, d := range got.Domains {
		if d.InsightsAndSupport != insights[i] {
			t.Errorf("domain %d insights = %q, want %q", i, d.InsightsAndSupport, insights[i])
		}
	}

	ready, err = repo.InsightsReady(ctx, report.IndividualID)
	if err != nil {
		t.Fatalf("InsightsReady failed: %v", err)
	}
	if !ready {
		t.Error("insights should be ready after UpdateInsights")
	}
}

func TestReportRepository_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReportRepository(db.Pool, logrus.New())

	_, err := repo.GetBySubmissionID(ctx, uuid.New().String())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, uuid.New().String()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestReportRepository_ListOrdering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewReportRepository(db.Pool, logrus.New())

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, sampleReport(t)); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	reports, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 3 {
		t.Errorf("List returned %d reports, want 3", len(reports))
	}
}
