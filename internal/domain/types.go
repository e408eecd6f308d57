// Package domain contains the core business entities and types for
// mental-wellness self-assessment scoring.
//
// Domain scores follow the PROMIS patient-reported outcome framework
// (T-scores with population mean 50, SD 10) plus the PHQ-15 somatic
// symptom scale.
package domain

import (
	"errors"
)

// ScoringMethod determines how normalized per-question values are
// aggregated into a domain score.
type ScoringMethod string

const (
	SUM           ScoringMethod = "SUM"
	MAX_THRESHOLD ScoringMethod = "MAX_THRESHOLD"
	AVERAGE       ScoringMethod = "AVERAGE"
)

// AnswerMapping determines how a raw answer token becomes a numeric
// severity value for a given instrument.
type AnswerMapping string

const (
	PROMIS  AnswerMapping = "PROMIS"
	PHQ15   AnswerMapping = "PHQ15"
	DEFAULT AnswerMapping = "DEFAULT"
)

// TScoreType selects the raw-to-T-score conversion table for a domain,
// or NONE for unstandardized instruments.
type TScoreType string

const (
	DEPRESSION TScoreType = "DEPRESSION"
	ANGER      TScoreType = "ANGER"
	ANXIETY    TScoreType = "ANXIETY"
	SLEEP      TScoreType = "SLEEP"
	NONE       TScoreType = "NONE"
)

// Fixed interpretation labels produced outside the reference-interval scan.
const (
	InterpretationIncomplete    = "Incomplete Assessment"
	InterpretationNotClassified = "Not Classified"
)

// CompletionThreshold is the fraction of a domain's intended core items
// that must normalize to a valid value before any score is produced.
// It is a single global constant applied uniformly across all domains.
const CompletionThreshold = 0.75

// Validation errors for assessment data integrity
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateSubmission  = errors.New("submission already exists")
	ErrInvalidSubmission    = errors.New("invalid submission")
	ErrInvalidScoringMethod = errors.New("invalid scoring method")
	ErrInvalidAnswerMapping = errors.New("invalid answer mapping")
	ErrInvalidTScoreType    = errors.New("invalid t-score type")
)

// IsValid validates the scoring method against the closed set of variants.
func (m ScoringMethod) IsValid() bool {
	switch m {
	case SUM, MAX_THRESHOLD, AVERAGE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the scoring method.
func (m ScoringMethod) String() string {
	return string(m)
}

// IsValid validates the answer mapping.
func (am AnswerMapping) IsValid() bool {
	switch am {
	case PROMIS, PHQ15, DEFAULT:
		return true
	default:
		return false
	}
}

// String returns the string representation of the answer mapping.
func (am AnswerMapping) String() string {
	return string(am)
}

// IsValid validates the T-score type.
func (t TScoreType) IsValid() bool {
	switch t {
	case DEPRESSION, ANGER, ANXIETY, SLEEP, NONE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the T-score type.
func (t TScoreType) String() string {
	return string(t)
}

// HasTable reports whether the type selects a conversion table.
func (t TScoreType) HasTable() bool {
	return t.IsValid() && t != NONE
}
