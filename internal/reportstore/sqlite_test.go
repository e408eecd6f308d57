package reportstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-assessment-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reportstore-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "reports.db"))
	require.NoError(t, err)
	return store
}

func testReport(submissionID string) *domain.IndividualData {
	score := 57.9
	raw := 20.0
	return &domain.IndividualData{
		IndividualID:   submissionID,
		FirstName:      "Ada",
		LastName:       "Byron",
		Email:          "ada@example.com",
		AssessmentDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Domains: []domain.DomainResult{
			{
				Name:               "Depression",
				Score:              &score,
				RawScore:           &raw,
				TScore:             &score,
				UserInterpretation: "Mild",
			},
			{
				Name:               "Anxiety",
				UserInterpretation: domain.InterpretationIncomplete,
			},
		},
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "reportstore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "nested", "reports.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := NewRecord(testReport("sub-001"))

	err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.NotZero(t, record.ID, "ID should be assigned")
	assert.False(t, record.CreatedAt.IsZero(), "CreatedAt should be set")

	got, err := store.Get(ctx, "sub-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sub-001", got.SubmissionID)
	assert.Equal(t, "ada@example.com", got.Email)
	require.NotNil(t, got.Report)
	require.Len(t, got.Report.Domains, 2)
	assert.Equal(t, "Depression", got.Report.Domains[0].Name)
	require.NotNil(t, got.Report.Domains[0].TScore)
	assert.Equal(t, 57.9, *got.Report.Domains[0].TScore)
	assert.Nil(t, got.Report.Domains[1].Score, "incomplete domain score stays nil through storage")
}

func TestSQLiteStore_Save_Update(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	record := NewRecord(testReport("sub-002"))

	err := store.Save(ctx, record)
	require.NoError(t, err)
	originalID := record.ID

	// Second save with insights replaces the existing row
	withInsights, err := record.Report.WithInsights([]string{"note one", "note two"})
	require.NoError(t, err)
	updated := NewRecord(withInsights)
	updated.InsightsReady = true

	err = store.Save(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, originalID, updated.ID, "upsert should keep the same row")

	got, err := store.Get(ctx, "sub-002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.InsightsReady)
	assert.Equal(t, "note one", got.Report.Domains[0].InsightsAndSupport)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	for _, id := range []string{"sub-a", "sub-b", "sub-c"} {
		require.NoError(t, store.Save(ctx, NewRecord(testReport(id))))
	}

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	err = store.Delete(ctx, all[0].ID)
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, NewRecord(testReport("sub-x"))))
	require.NoError(t, store.Save(ctx, NewRecord(testReport("sub-y"))))

	var buf bytes.Buffer
	err := store.ExportJSON(ctx, &buf)
	require.NoError(t, err)

	// Import into a fresh store
	dest := createTestStore(t)
	defer dest.Close()

	imported, skipped, err := dest.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 0, skipped)

	// Re-importing skips everything
	imported, skipped, err = dest.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 2, skipped)

	got, err := dest.Get(ctx, "sub-x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Depression", got.Report.Domains[0].Name)
}
