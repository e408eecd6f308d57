package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/reportstore"
	"github.com/mindwell-assessment-server/internal/scoring"
)

// ScoreAssessmentParams defines parameters for the score_assessment tool
type ScoreAssessmentParams struct {
	SubmissionID   string         `json:"submission_id,omitempty"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name,omitempty"`
	Email          string         `json:"email"`
	AssessmentDate string         `json:"assessment_date,omitempty"`
	Answers        map[string]any `json:"answers"`
}

// GetReportParams defines parameters for the get_report tool
type GetReportParams struct {
	SubmissionID string `json:"submission_id"`
}

// ListDomainsParams defines parameters for the list_domains tool
type ListDomainsParams struct{}

// ExportReportsParams defines parameters for the export_reports tool
type ExportReportsParams struct {
	Path string `json:"path,omitempty"`
}

// ImportReportsParams defines parameters for the import_reports tool
type ImportReportsParams struct {
	Path string `json:"path"`
}

// ExportResult describes a completed archive export
type ExportResult struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// ImportResult describes a completed archive import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// DomainSummary is one domain in the list_domains result
type DomainSummary struct {
	Name                   string                     `json:"name"`
	About                  string                     `json:"about"`
	IndividualsExperienced string                     `json:"individuals_experienced,omitempty"`
	QuestionIDs            []string                   `json:"question_ids"`
	ReferenceIntervals     []domain.ReferenceInterval `json:"reference_intervals"`
}

// handleScoreAssessment handles the score_assessment tool invocation
func (s *Server) handleScoreAssessment(ctx context.Context, req *mcp.CallToolRequest, params ScoreAssessmentParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "score_assessment").Info("Tool invoked")

	submission := &domain.Submission{
		SubmissionID: params.SubmissionID,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		Answers:      params.Answers,
	}
	if submission.SubmissionID == "" {
		submission.SubmissionID = uuid.New().String()
	}
	if params.AssessmentDate != "" {
		parsed, err := time.Parse(time.RFC3339, params.AssessmentDate)
		if err != nil {
			return s.errorResult("Invalid assessment_date, expected RFC 3339", err), nil, nil
		}
		submission.AssessmentDate = parsed
	} else {
		submission.AssessmentDate = time.Now().UTC()
	}

	if err := submission.Validate(); err != nil {
		return s.errorResult("Invalid submission", err), nil, nil
	}

	report := s.engine.GenerateReport(submission)

	if err := s.store.Save(ctx, reportstore.NewRecord(report)); err != nil {
		return s.errorResult("Failed to archive report", err), nil, nil
	}

	// Stdio callers get one shot at the result, so narratives are
	// generated inline rather than in the background. A failing
	// endpoint degrades to a report without them.
	if s.insights != nil && s.insights.Enabled() {
		enriched, err := s.insights.GenerateAndStore(ctx, report)
		if err != nil {
			s.logger.WithError(err).Warn("Insight generation failed, returning report without narratives")
		} else {
			report = enriched
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Scored %d domains for submission %s: %s",
					len(report.Domains), report.IndividualID, summarize(report)),
			},
		},
	}, report, nil
}

// handleGetReport handles the get_report tool invocation
func (s *Server) handleGetReport(ctx context.Context, req *mcp.CallToolRequest, params GetReportParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "get_report").Info("Tool invoked")

	if params.SubmissionID == "" {
		return s.errorResult("Missing required parameter", fmt.Errorf("submission_id is required")), nil, nil
	}

	record, err := s.store.Get(ctx, params.SubmissionID)
	if err != nil {
		return s.errorResult("Failed to load report", err), nil, nil
	}
	if record == nil {
		return s.errorResult("Report not found",
			fmt.Errorf("no report archived for submission %s", params.SubmissionID)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Report for submission %s: %s",
					record.SubmissionID, summarize(record.Report)),
			},
		},
	}, record.Report, nil
}

// handleListDomains handles the list_domains tool invocation
func (s *Server) handleListDomains(ctx context.Context, req *mcp.CallToolRequest, params ListDomainsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_domains").Info("Tool invoked")

	configs := scoring.Registry()
	out := make([]DomainSummary, 0, len(configs))
	for _, cfg := range configs {
		ids := make([]string, 0, len(cfg.Questions))
		for _, q := range cfg.Questions {
			ids = append(ids, q.ID)
		}
		out = append(out, DomainSummary{
			Name:                   cfg.Name,
			About:                  cfg.About,
			IndividualsExperienced: cfg.IndividualsExperienced,
			QuestionIDs:            ids,
			ReferenceIntervals:     cfg.ReferenceIntervals,
		})
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("%d assessment domains configured", len(out)),
			},
		},
	}, out, nil
}

// handleExportReports handles the export_reports tool invocation
func (s *Server) handleExportReports(ctx context.Context, req *mcp.CallToolRequest, params ExportReportsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "export_reports").Info("Tool invoked")

	path := params.Path
	if path == "" {
		path = filepath.Join(s.config.ExportDir(),
			fmt.Sprintf("reports-%s.json", time.Now().UTC().Format("20060102-150405")))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return s.errorResult("Failed to create export directory", err), nil, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return s.errorResult("Failed to create export file", err), nil, nil
	}
	defer file.Close()

	if err := s.store.ExportJSON(ctx, file); err != nil {
		return s.errorResult("Failed to export reports", err), nil, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return s.errorResult("Failed to count archived reports", err), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Exported %d reports to %s", count, path),
			},
		},
	}, ExportResult{Path: path, Count: count}, nil
}

// handleImportReports handles the import_reports tool invocation
func (s *Server) handleImportReports(ctx context.Context, req *mcp.CallToolRequest, params ImportReportsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "import_reports").Info("Tool invoked")

	if params.Path == "" {
		return s.errorResult("Missing required parameter", fmt.Errorf("path is required")), nil, nil
	}

	file, err := os.Open(params.Path)
	if err != nil {
		return s.errorResult("Failed to open import file", err), nil, nil
	}
	defer file.Close()

	imported, skipped, err := s.store.ImportJSON(ctx, file)
	if err != nil {
		return s.errorResult("Failed to import reports", err), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Imported %d reports, skipped %d already archived", imported, skipped),
			},
		},
	}, ImportResult{Imported: imported, Skipped: skipped}, nil
}

// summarize renders a one-line overview of a report for tool text output.
func summarize(report *domain.IndividualData) string {
	text := ""
	for i, d := range report.Domains {
		if i > 0 {
			text += ", "
		}
		text += d.Name + ": " + d.UserInterpretation
	}
	return text
}

// errorResult creates a standardized error result for tool calls
func (s *Server) errorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
