// Package reportstore provides archival storage for finished assessment
// reports. It backs deployments that run without the primary PostgreSQL
// database, such as the stdio MCP server, and supports JSON export and
// import for moving archives between installations.
package reportstore

import (
	"context"
	"io"
	"time"

	"github.com/mindwell-assessment-server/internal/domain"
)

// maxExportLimit is the maximum number of entries any store exports
// at once.
const maxExportLimit = 1000000

// Record is one archived assessment report.
type Record struct {
	ID             int64                  `json:"id,omitempty"`
	SubmissionID   string                 `json:"submission_id"`
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name,omitempty"`
	Email          string                 `json:"email"`
	AssessmentDate time.Time              `json:"assessment_date"`
	Report         *domain.IndividualData `json:"report"`
	InsightsReady  bool                   `json:"insights_ready"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewRecord builds an archive record from a scored report.
func NewRecord(report *domain.IndividualData) *Record {
	return &Record{
		SubmissionID:   report.IndividualID,
		FirstName:      report.FirstName,
		LastName:       report.LastName,
		Email:          report.Email,
		AssessmentDate: report.AssessmentDate,
		Report:         report,
	}
}

// Store defines the interface for report archive operations.
type Store interface {
	// Save stores or updates an archived report.
	// If a record for the same submission ID exists, it will be updated.
	Save(ctx context.Context, record *Record) error

	// Get retrieves the archived report for a submission ID.
	// Returns nil without error when no record exists.
	Get(ctx context.Context, submissionID string) (*Record, error)

	// List returns archived reports with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of archived reports.
	Count(ctx context.Context) (int64, error)

	// Delete removes an archived report by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all archived reports to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports archived reports from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Reports    []*Record `json:"reports"`
}
