package scoring

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/domain"
)

// Engine computes assessment reports from raw submissions using the
// domain registry. It is stateless apart from the immutable
// configuration and a logger; a single Engine serves all requests.
type Engine struct {
	logger  *logrus.Logger
	domains []domain.DomainConfig
}

// NewEngine creates a scoring engine over the standard domain registry.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger:  logger,
		domains: Registry(),
	}
}

// NewEngineWithDomains creates an engine over an explicit configuration
// table. Used by tests; production code uses NewEngine.
func NewEngineWithDomains(logger *logrus.Logger, domains []domain.DomainConfig) *Engine {
	return &Engine{
		logger:  logger,
		domains: domains,
	}
}

// DomainScores holds the aggregation result for one domain. All three
// fields are nil when the completion gate fails; TScore is nil for
// domains without a conversion table or for raw totals outside it.
type DomainScores struct {
	RawScore   *float64
	FinalScore *float64
	TScore     *float64
}

// GenerateReport produces one DomainResult per configured domain, in
// registry order. It is total over well-typed input: malformed or
// missing answers are treated as non-contributing, never as errors.
func (e *Engine) GenerateReport(sub *domain.Submission) *domain.IndividualData {
	results := make([]domain.DomainResult, 0, len(e.domains))

	for i := range e.domains {
		cfg := &e.domains[i]
		scores := e.ScoreDomain(cfg, sub.Answers)
		interpretation := Interpret(cfg, scores.FinalScore)

		results = append(results, domain.DomainResult{
			Name:                   cfg.Name,
			About:                  cfg.About,
			AboutLink:              cfg.AboutLink,
			Score:                  scores.FinalScore,
			RawScore:               scores.RawScore,
			TScore:                 scores.TScore,
			UserInterpretation:     interpretation,
			ReferenceIntervals:     cfg.ReferenceIntervals,
			IndividualsExperienced: cfg.IndividualsExperienced,
			InsightsAndSupport:     "",
		})
	}

	e.logger.WithFields(logrus.Fields{
		"submission_id": sub.SubmissionID,
		"domains":       len(results),
	}).Info("Assessment report generated")

	return &domain.IndividualData{
		IndividualID:   sub.SubmissionID,
		FirstName:      sub.FirstName,
		LastName:       sub.LastName,
		Email:          sub.Email,
		AssessmentDate: sub.AssessmentDate,
		Domains:        results,
	}
}

// ScoreDomain aggregates the answers for one domain configuration.
func (e *Engine) ScoreDomain(cfg *domain.DomainConfig, answers map[string]any) DomainScores {
	values := e.normalizedCoreValues(cfg, answers)

	// Completion gate: compare against the intended core-item count of
	// the instrument, not the count of questions actually configured, so
	// an instrument with optional items can be evaluated from a subset.
	if cfg.IntendedQuestionCount > 0 {
		ratio := float64(len(values)) / float64(cfg.IntendedQuestionCount)
		if ratio < domain.CompletionThreshold {
			e.logger.WithFields(logrus.Fields{
				"domain":   cfg.Name,
				"answered": len(values),
				"intended": cfg.IntendedQuestionCount,
			}).Debug("Domain below completion threshold")
			return DomainScores{}
		}
	}

	switch cfg.ScoringMethod {
	case domain.MAX_THRESHOLD:
		raw := maxValue(values)
		return DomainScores{RawScore: &raw, FinalScore: &raw}

	case domain.AVERAGE:
		raw := round1(mean(values))
		return DomainScores{RawScore: &raw, FinalScore: &raw}

	default: // SUM
		// Prorate: reconstruct the raw sum the full instrument would
		// have produced, assuming the answered subset is representative.
		prorated := math.Round(mean(values) * float64(cfg.IntendedQuestionCount))
		raw := prorated

		if cfg.TScoreType.HasTable() {
			tScore := LookupTScore(cfg.TScoreType, int(prorated))
			// A raw total outside the table's keys yields no T-score;
			// this is a silent "no score available", not an error.
			return DomainScores{RawScore: &raw, FinalScore: tScore, TScore: tScore}
		}
		return DomainScores{RawScore: &raw, FinalScore: &raw}
	}
}

// normalizedCoreValues maps each answered core question through the
// domain's answer mapping, discarding answers that normalize to nil.
func (e *Engine) normalizedCoreValues(cfg *domain.DomainConfig, answers map[string]any) []float64 {
	var values []float64
	for _, q := range cfg.Questions {
		if !q.IsCore {
			continue
		}
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		token := domain.TokenFromRaw(raw)
		if v := Normalize(token, cfg.AnswerMapping, q.Reverse); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// Interpret maps a final score to its severity label by scanning the
// domain's reference intervals in configured order; the first match
// wins. A nil score always reads as an incomplete assessment.
func Interpret(cfg *domain.DomainConfig, score *float64) string {
	if score == nil {
		return domain.InterpretationIncomplete
	}
	for _, band := range cfg.ReferenceIntervals {
		if band.Contains(*score) {
			return band.Label
		}
	}
	return domain.InterpretationNotClassified
}

func maxValue(values []float64) float64 {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
