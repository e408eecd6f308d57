package domain

import (
	"fmt"
	"time"
)

// QuestionRef identifies one question within a domain's configuration.
// Only core questions contribute to the domain score; non-core items are
// screening or trigger questions owned by the surrounding survey flow.
type QuestionRef struct {
	ID      string `json:"id"`
	IsCore  bool   `json:"isCore"`
	Reverse bool   `json:"reverse,omitempty"`
}

// ReferenceInterval is one severity band of a domain's score range.
// Max nil means unbounded above.
type ReferenceInterval struct {
	Label string   `json:"label"`
	Min   float64  `json:"min"`
	Max   *float64 `json:"max"`
	Color string   `json:"color"`
}

// Contains reports whether score falls inside the interval.
func (ri ReferenceInterval) Contains(score float64) bool {
	if score < ri.Min {
		return false
	}
	return ri.Max == nil || score <= *ri.Max
}

// DomainConfig is the immutable scoring configuration for one assessment
// domain. Configurations are defined once at process start and never
// mutated afterwards.
type DomainConfig struct {
	Name                   string
	About                  string
	AboutLink              string
	IndividualsExperienced string
	ScoringMethod          ScoringMethod
	AnswerMapping          AnswerMapping
	TScoreType             TScoreType
	Questions              []QuestionRef
	IntendedQuestionCount  int
	ReferenceIntervals     []ReferenceInterval
}

// CoreQuestions returns the questions counted toward the domain score,
// preserving configuration order.
func (dc *DomainConfig) CoreQuestions() []QuestionRef {
	core := make([]QuestionRef, 0, len(dc.Questions))
	for _, q := range dc.Questions {
		if q.IsCore {
			core = append(core, q)
		}
	}
	return core
}

// Validate ensures a domain configuration is structurally sound. The
// registry runs this once at startup; a failure there is a programming
// error, not a runtime condition.
func (dc *DomainConfig) Validate() error {
	if dc.Name == "" {
		return fmt.Errorf("domain config validation: name is required")
	}
	if !dc.ScoringMethod.IsValid() {
		return fmt.Errorf("domain config validation: %w", ErrInvalidScoringMethod)
	}
	if !dc.AnswerMapping.IsValid() {
		return fmt.Errorf("domain config validation: %w", ErrInvalidAnswerMapping)
	}
	if !dc.TScoreType.IsValid() {
		return fmt.Errorf("domain config validation: %w", ErrInvalidTScoreType)
	}
	if dc.IntendedQuestionCount < 0 {
		return fmt.Errorf("domain config validation: intended question count must be non-negative")
	}
	if len(dc.ReferenceIntervals) == 0 {
		return fmt.Errorf("domain config validation: at least one reference interval is required")
	}
	return nil
}

// Submission is one completed questionnaire as received from intake.
// Answers maps question id to an arbitrary raw answer token: a number,
// a numeric-like string, free text, or a structured object carrying a
// per-question reverse-scoring override.
type Submission struct {
	SubmissionID   string         `json:"submissionId"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	AssessmentDate time.Time      `json:"assessmentDate"`
	Answers        map[string]any `json:"answers"`
}

// Validate checks the fields required before a submission is scored and
// persisted. Individual answer tokens are never validated here; malformed
// answers degrade to "not counted" inside the engine.
func (s *Submission) Validate() error {
	if s.FirstName == "" {
		return fmt.Errorf("submission validation: first name is required: %w", ErrInvalidSubmission)
	}
	if s.Email == "" {
		return fmt.Errorf("submission validation: email is required: %w", ErrInvalidSubmission)
	}
	if s.Answers == nil {
		return fmt.Errorf("submission validation: answers are required: %w", ErrInvalidSubmission)
	}
	return nil
}

// DomainResult is the computed outcome for one domain of one submission.
// Score, RawScore and TScore are nil when the completion gate fails;
// TScore is additionally nil for domains without a conversion table or
// when the prorated raw score falls outside the table's defined keys.
type DomainResult struct {
	Name                   string              `json:"name"`
	About                  string              `json:"about"`
	AboutLink              string              `json:"aboutLink"`
	Score                  *float64            `json:"score"`
	RawScore               *float64            `json:"rawScore"`
	TScore                 *float64            `json:"tScore"`
	UserInterpretation     string              `json:"userInterpretation"`
	ReferenceIntervals     []ReferenceInterval `json:"referenceIntervals"`
	IndividualsExperienced string              `json:"individualsExperienced"`
	InsightsAndSupport     string              `json:"insightsAndSupport"`
}

// IndividualData is the complete report for one submission. Domains are
// ordered exactly as the configuration registry orders them; downstream
// narrative insertion relies on that order.
type IndividualData struct {
	IndividualID   string         `json:"individualId"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	AssessmentDate time.Time      `json:"assessmentDate"`
	Domains        []DomainResult `json:"domains"`
}

// WithInsights returns a copy of the report with insightsAndSupport
// filled per domain. Insights must align 1:1 with the domain order.
// The receiver is never mutated.
func (d *IndividualData) WithInsights(insights []string) (*IndividualData, error) {
	if len(insights) != len(d.Domains) {
		return nil, fmt.Errorf("insights count %d does not match domain count %d", len(insights), len(d.Domains))
	}
	out := *d
	out.Domains = make([]DomainResult, len(d.Domains))
	copy(out.Domains, d.Domains)
	for i := range out.Domains {
		out.Domains[i].InsightsAndSupport = insights[i]
	}
	return &out, nil
}
