package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-assessment-server/internal/config"
	"github.com/mindwell-assessment-server/internal/domain"
)

func newTestServer(t *testing.T) *Server {
	return newTestServerWithConfig(t, &config.LiteConfig{})
}

func newTestServerWithConfig(t *testing.T, cfg *config.LiteConfig) *Server {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mcp-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg.DataDir = tmpDir
	cfg.LogLevel = "panic"
	cfg.LogFormat = "json"

	server, err := NewServer(cfg, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server
}

func depressionAnswers() map[string]any {
	return map[string]any{
		"dep-1": 1, "dep-2": 1, "dep-3": 1, "dep-4": 1,
		"dep-5": 2, "dep-6": 2, "dep-7": 2, "dep-8": 2,
	}
}

func TestScoreAssessment(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, payload, err := server.handleScoreAssessment(ctx, nil, ScoreAssessmentParams{
		SubmissionID: "mcp-sub-1",
		FirstName:    "Ada",
		Email:        "ada@example.com",
		Answers:      depressionAnswers(),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	report, ok := payload.(*domain.IndividualData)
	require.True(t, ok)
	assert.Equal(t, "mcp-sub-1", report.IndividualID)
	require.NotEmpty(t, report.Domains)
	require.NotNil(t, report.Domains[0].TScore)
	assert.Equal(t, 57.9, *report.Domains[0].TScore)
	assert.Equal(t, "Mild", report.Domains[0].UserInterpretation)

	// The report was archived
	record, err := server.store.Get(ctx, "mcp-sub-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "ada@example.com", record.Email)
}

func TestScoreAssessment_MissingFields(t *testing.T) {
	server := newTestServer(t)

	result, payload, err := server.handleScoreAssessment(context.Background(), nil, ScoreAssessmentParams{
		FirstName: "Ada",
		// email and answers missing
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Nil(t, payload)
}

func TestScoreAssessment_BadDate(t *testing.T) {
	server := newTestServer(t)

	result, _, err := server.handleScoreAssessment(context.Background(), nil, ScoreAssessmentParams{
		FirstName:      "Ada",
		Email:          "ada@example.com",
		AssessmentDate: "not-a-date",
		Answers:        depressionAnswers(),
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetReport(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, _, err := server.handleScoreAssessment(ctx, nil, ScoreAssessmentParams{
		SubmissionID: "mcp-sub-2",
		FirstName:    "Ada",
		Email:        "ada@example.com",
		Answers:      depressionAnswers(),
	})
	require.NoError(t, err)

	result, payload, err := server.handleGetReport(ctx, nil, GetReportParams{SubmissionID: "mcp-sub-2"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	report, ok := payload.(*domain.IndividualData)
	require.True(t, ok)
	assert.Equal(t, "mcp-sub-2", report.IndividualID)
}

func TestGetReport_NotFound(t *testing.T) {
	server := newTestServer(t)

	result, payload, err := server.handleGetReport(context.Background(), nil, GetReportParams{SubmissionID: "missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Nil(t, payload)
}

func TestScoreAssessment_WithInsights(t *testing.T) {
	completion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "take a mindful pause"}},
			},
		})
	}))
	defer completion.Close()

	server := newTestServerWithConfig(t, &config.LiteConfig{
		InsightsAPIKey:  "test-key",
		InsightsBaseURL: completion.URL,
		InsightsModel:   "test-model",
		CacheMaxItems:   10,
		CacheTTL:        time.Minute,
	})
	ctx := context.Background()

	_, payload, err := server.handleScoreAssessment(ctx, nil, ScoreAssessmentParams{
		SubmissionID: "mcp-sub-ins",
		FirstName:    "Ada",
		Email:        "ada@example.com",
		Answers:      depressionAnswers(),
	})
	require.NoError(t, err)

	report, ok := payload.(*domain.IndividualData)
	require.True(t, ok)
	assert.Equal(t, "take a mindful pause", report.Domains[0].InsightsAndSupport)

	// The enriched report was archived
	record, err := server.store.Get(ctx, "mcp-sub-ins")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.InsightsReady)
	assert.Equal(t, "take a mindful pause", record.Report.Domains[0].InsightsAndSupport)
}

func TestExportImportReports(t *testing.T) {
	source := newTestServer(t)
	ctx := context.Background()

	for _, id := range []string{"exp-1", "exp-2"} {
		_, _, err := source.handleScoreAssessment(ctx, nil, ScoreAssessmentParams{
			SubmissionID: id,
			FirstName:    "Ada",
			Email:        "ada@example.com",
			Answers:      depressionAnswers(),
		})
		require.NoError(t, err)
	}

	// Default path lands in the configured export directory
	result, payload, err := source.handleExportReports(ctx, nil, ExportReportsParams{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	export, ok := payload.(ExportResult)
	require.True(t, ok)
	assert.Equal(t, int64(2), export.Count)
	assert.True(t, strings.HasPrefix(export.Path, source.config.ExportDir()))
	_, err = os.Stat(export.Path)
	require.NoError(t, err)

	// A fresh archive imports everything
	target := newTestServer(t)
	result, payload, err = target.handleImportReports(ctx, nil, ImportReportsParams{Path: export.Path})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	imported, ok := payload.(ImportResult)
	require.True(t, ok)
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 0, imported.Skipped)

	_, payload, err = target.handleGetReport(ctx, nil, GetReportParams{SubmissionID: "exp-1"})
	require.NoError(t, err)
	report, ok := payload.(*domain.IndividualData)
	require.True(t, ok)
	assert.Equal(t, "exp-1", report.IndividualID)

	// Re-importing skips everything
	_, payload, err = target.handleImportReports(ctx, nil, ImportReportsParams{Path: export.Path})
	require.NoError(t, err)
	imported = payload.(ImportResult)
	assert.Equal(t, 0, imported.Imported)
	assert.Equal(t, 2, imported.Skipped)
}

func TestImportReports_MissingPath(t *testing.T) {
	server := newTestServer(t)

	result, payload, err := server.handleImportReports(context.Background(), nil, ImportReportsParams{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Nil(t, payload)
}

func TestListDomains(t *testing.T) {
	server := newTestServer(t)

	result, payload, err := server.handleListDomains(context.Background(), nil, ListDomainsParams{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	domains, ok := payload.([]DomainSummary)
	require.True(t, ok)
	require.Len(t, domains, 7)
	assert.Equal(t, "Depression", domains[0].Name)
	assert.NotEmpty(t, domains[0].ReferenceIntervals)
}
