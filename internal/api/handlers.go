package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/internal/scoring"
)

// submitAssessmentRequest is the intake payload. Answers map question
// ids to raw answer tokens exactly as the questionnaire front end
// collected them.
type submitAssessmentRequest struct {
	SubmissionID   string         `json:"submissionId"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	AssessmentDate time.Time      `json:"assessmentDate"`
	Answers        map[string]any `json:"answers"`
}

// insightsTimeout bounds background narrative generation per report.
const insightsTimeout = 2 * time.Minute

// handleSubmitAssessment scores a submission, persists the report, and
// returns it. Narrative insights are generated in the background; the
// response carries empty insight fields and insightsReady=false until
// the stream or a later GET delivers the enriched report.
func (s *Server) handleSubmitAssessment(c *gin.Context) {
	var req submitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	submission := &domain.Submission{
		SubmissionID:   req.SubmissionID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		AssessmentDate: req.AssessmentDate,
		Answers:        req.Answers,
	}
	if submission.SubmissionID == "" {
		submission.SubmissionID = uuid.New().String()
	}
	if submission.AssessmentDate.IsZero() {
		submission.AssessmentDate = time.Now().UTC()
	}

	if err := submission.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := s.engine.GenerateReport(submission)

	if err := s.reports.Create(c.Request.Context(), report); err != nil {
		if errors.Is(err, domain.ErrDuplicateSubmission) {
			c.JSON(http.StatusConflict, gin.H{"error": "submission already exists"})
			return
		}
		s.log.WithError(err).Error("Failed to persist report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}

	if s.insights != nil {
		go s.generateInsights(report)
	}

	c.JSON(http.StatusCreated, gin.H{
		"report":        report,
		"insightsReady": false,
	})
}

// generateInsights runs narrative generation detached from the request.
func (s *Server) generateInsights(report *domain.IndividualData) {
	ctx, cancel := context.WithTimeout(context.Background(), insightsTimeout)
	defer cancel()

	if _, err := s.insights.GenerateAndStore(ctx, report); err != nil {
		s.log.WithFields(logrus.Fields{
			"submission_id": report.IndividualID,
		}).WithError(err).Error("Background insights generation failed")
	}
}

// handleGetReport returns a stored report by submission id.
func (s *Server) handleGetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := s.reports.GetBySubmissionID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		s.log.WithError(err).Error("Failed to load report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	ready, err := s.reports.InsightsReady(c.Request.Context(), id)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load insights status")
	}

	c.JSON(http.StatusOK, gin.H{
		"report":        report,
		"insightsReady": ready,
	})
}

// handleListDomains returns the configured assessment domains without
// any scoring internals, for questionnaire front ends.
func (s *Server) handleListDomains(c *gin.Context) {
	type domainInfo struct {
		Name                   string                     `json:"name"`
		About                  string                     `json:"about"`
		AboutLink              string                     `json:"aboutLink,omitempty"`
		IndividualsExperienced string                     `json:"individualsExperienced,omitempty"`
		QuestionIDs            []string                   `json:"questionIds"`
		ReferenceIntervals     []domain.ReferenceInterval `json:"referenceIntervals"`
	}

	configs := scoring.Registry()
	out := make([]domainInfo, 0, len(configs))
	for _, cfg := range configs {
		ids := make([]string, 0, len(cfg.Questions))
		for _, q := range cfg.Questions {
			ids = append(ids, q.ID)
		}
		out = append(out, domainInfo{
			Name:                   cfg.Name,
			About:                  cfg.About,
			AboutLink:              cfg.AboutLink,
			IndividualsExperienced: cfg.IndividualsExperienced,
			QuestionIDs:            ids,
			ReferenceIntervals:     cfg.ReferenceIntervals,
		})
	}

	c.JSON(http.StatusOK, gin.H{"domains": out})
}
