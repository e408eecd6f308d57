package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mindwell-assessment-server/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite report archive.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record, decoding the report payload.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var reportJSON []byte

	err := s.Scan(
		&rec.ID, &rec.SubmissionID, &rec.FirstName, &rec.LastName,
		&rec.Email, &rec.AssessmentDate, &reportJSON, &rec.InsightsReady,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var report domain.IndividualData
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report payload: %w", err)
	}
	rec.Report = &report
	return rec, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submission_id TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT DEFAULT '',
		email TEXT NOT NULL,
		assessment_date DATETIME NOT NULL,
		report TEXT NOT NULL,
		insights_ready INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_email ON reports(email);
	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or updates an archived report.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	if record.Report == nil {
		return fmt.Errorf("record has no report payload")
	}

	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report payload: %w", err)
	}

	now := time.Now()

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM reports WHERE submission_id = ?",
		record.SubmissionID,
	).Scan(&existingID)

	if err == nil {
		record.ID = existingID
		record.UpdatedAt = now

		_, err = s.db.ExecContext(ctx, `
			UPDATE reports SET
				first_name = ?,
				last_name = ?,
				email = ?,
				assessment_date = ?,
				report = ?,
				insights_ready = ?,
				updated_at = ?
			WHERE id = ?
		`,
			record.FirstName,
			record.LastName,
			record.Email,
			record.AssessmentDate,
			string(reportJSON),
			record.InsightsReady,
			now,
			existingID,
		)
		return err
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	record.CreatedAt = now
	record.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (
			submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.SubmissionID,
		record.FirstName,
		record.LastName,
		record.Email,
		record.AssessmentDate,
		string(reportJSON),
		record.InsightsReady,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	return nil
}

// Get retrieves the archived report for a submission ID.
func (s *SQLiteStore) Get(ctx context.Context, submissionID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		FROM reports
		WHERE submission_id = ?
		LIMIT 1
	`, submissionID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns archived reports with pagination, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submission_id, first_name, last_name, email,
			assessment_date, report, insights_ready, created_at, updated_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of archived reports.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

// Delete removes an archived report by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	return err
}

// ExportJSON exports all archived reports to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
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
// Entries whose submission ID already exists in the archive are skipped.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
