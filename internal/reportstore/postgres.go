package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mindwell-assessment-server/internal/domain"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL report archive.
// It expects the archive schema to already exist.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL report archive from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores or updates an archived report.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	if record.Report == nil {
		return fmt.Errorf("record has no report payload")
	}

	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report payload: %w", err)
	}

	now := time.Now()

	query := `
		INSERT INTO archived_reports (
			submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (submission_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			assessment_date = EXCLUDED.assessment_date,
			report = EXCLUDED.report,
			insights_ready = EXCLUDED.insights_ready,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		record.SubmissionID,
		record.FirstName,
		record.LastName,
		record.Email,
		record.AssessmentDate,
		reportJSON,
		record.InsightsReady,
		now,
		now,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	record.UpdatedAt = now
	return nil
}

// Get retrieves the archived report for a submission ID.
func (s *PostgresStore) Get(ctx context.Context, submissionID string) (*Record, error) {
	query := `
		SELECT id, submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		FROM archived_reports
		WHERE submission_id = $1
		LIMIT 1
	`

	rec := &Record{}
	var reportJSON []byte

	err := s.db.QueryRowContext(ctx, query, submissionID).Scan(
		&rec.ID, &rec.SubmissionID, &rec.FirstName, &rec.LastName,
		&rec.Email, &rec.AssessmentDate, &reportJSON, &rec.InsightsReady,
		&rec.CreatedAt, &rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report domain.IndividualData
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}
	rec.Report = &report
	return rec, nil
}

// List returns archived reports with pagination, newest first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	query := `
		SELECT id, submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		FROM archived_reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec := &Record{}
		var reportJSON []byte

		err := rows.Scan(
			&rec.ID, &rec.SubmissionID, &rec.FirstName, &rec.LastName,
			&rec.Email, &rec.AssessmentDate, &reportJSON, &rec.InsightsReady,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var report domain.IndividualData
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("failed to decode report payload: %w", err)
		}
		rec.Report = &report
		result = append(result, rec)
	}

	return result, rows.Err()
}

// Count returns the total number of archived reports.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM archived_reports").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// Delete removes an archived report by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM archived_reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// ExportJSON exports all archived reports to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Reports:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports archived reports from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, rec := range export.Reports {
		existing, err := s.Get(ctx, rec.SubmissionID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if existing != nil {
			skipped++
			continue
		}

		if err := s.Save(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
