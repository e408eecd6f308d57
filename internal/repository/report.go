// Package repository handles persistence of computed assessment reports.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/domain"
)

// ReportRepository stores assessment reports in PostgreSQL. Domain
// results are persisted as a JSONB payload keyed by submission id.
type ReportRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool, logger *logrus.Logger) *ReportRepository {
	return &ReportRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new report keyed by its submission id.
func (r *ReportRepository) Create(ctx context.Context, report *domain.IndividualData) error {
	domains, err := json.Marshal(report.Domains)
	if err != nil {
		return fmt.Errorf("marshaling report domains: %w", err)
	}

	query := `
		INSERT INTO reports (
			submission_id, first_name, last_name, email, assessment_date, domains
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err = r.db.Exec(ctx, query,
		report.IndividualID,
		report.FirstName,
		report.LastName,
		report.Email,
		report.AssessmentDate,
		domains,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("report %s: %w", report.IndividualID, domain.ErrDuplicateSubmission)
		}
		r.log.WithFields(logrus.Fields{
			"submission_id": report.IndividualID,
			"error":         err,
		}).Error("Failed to create report")
		return fmt.Errorf("creating report: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"submission_id": report.IndividualID,
		"domains":       len(report.Domains),
	}).Info("Report created successfully")

	return nil
}

// GetBySubmissionID retrieves a report by its submission id.
func (r *ReportRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*domain.IndividualData, error) {
	query := `
		SELECT submission_id, first_name, last_name, email, assessment_date, domains
		FROM reports
		WHERE submission_id = $1`

	var report domain.IndividualData
	var domainsJSON []byte

	err := r.db.QueryRow(ctx, query, submissionID).Scan(
		&report.IndividualID,
		&report.FirstName,
		&report.LastName,
		&report.Email,
		&report.AssessmentDate,
		&domainsJSON,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("report %s: %w", submissionID, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"submission_id": submissionID,
			"error":         err,
		}).Error("Failed to get report")
		return nil, fmt.Errorf("getting report: %w", err)
	}

	if err := json.Unmarshal(domainsJSON, &report.Domains); err != nil {
		return nil, fmt.Errorf("unmarshaling report domains: %w", err)
	}

	return &report, nil
}

// UpdateInsights replaces a stored report's domain payload with one
// whose insightsAndSupport fields have been filled in, and marks the
// report's insights as ready.
func (r *ReportRepository) UpdateInsights(ctx context.Context, report *domain.IndividualData) error {
	domains, err := json.Marshal(report.Domains)
	if err != nil {
		return fmt.Errorf("marshaling report domains: %w", err)
	}

	query := `
		UPDATE reports
		SET domains = $2, insights_ready = TRUE, updated_at = NOW()
		WHERE submission_id = $1`

	result, err := r.db.Exec(ctx, query, report.IndividualID, domains)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"submission_id": report.IndividualID,
			"error":         err,
		}).Error("Failed to update report insights")
		return fmt.Errorf("updating report insights: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("report %s: %w", report.IndividualID, domain.ErrNotFound)
	}

	r.log.WithField("submission_id", report.IndividualID).Info("Report insights updated")
	return nil
}

// InsightsReady reports whether insight generation has completed for a
// submission.
func (r *ReportRepository) InsightsReady(ctx context.Context, submissionID string) (bool, error) {
	var ready bool
	err := r.db.QueryRow(ctx,
		`SELECT insights_ready FROM reports WHERE submission_id = $1`,
		submissionID,
	).Scan(&ready)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, fmt.Errorf("report %s: %w", submissionID, domain.ErrNotFound)
		}
		return false, fmt.Errorf("checking report insights: %w", err)
	}
	return ready, nil
}

// List returns persisted reports ordered newest first, with pagination.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*domain.IndividualData, error) {
	query := `
		SELECT submission_id, first_name, last_name, email, assessment_date, domains
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.IndividualData
	for rows.Next() {
		var report domain.IndividualData
		var domainsJSON []byte

		err := rows.Scan(
			&report.IndividualID,
			&report.FirstName,
			&report.LastName,
			&report.Email,
			&report.AssessmentDate,
			&domainsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		if err := json.Unmarshal(domainsJSON, &report.Domains); err != nil {
			return nil, fmt.Errorf("unmarshaling report domains: %w", err)
		}

		reports = append(reports, &report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report rows: %w", err)
	}

	return reports, nil
}

// Delete removes a report from the database.
func (r *ReportRepository) Delete(ctx context.Context, submissionID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reports WHERE submission_id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("report %s: %w", submissionID, domain.ErrNotFound)
	}

	r.log.WithField("submission_id", submissionID).Info("Report deleted")
	return nil
}
