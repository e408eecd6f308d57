package scoring

import (
	"fmt"

	"github.com/mindwell-assessment-server/internal/domain"
)

// The assessment registry: the fixed set of domains this instrument
// scores, in report order. Constructed once at package load and treated
// as read-only from then on; callers must not mutate what Registry
// returns.

func interval(label string, min float64, max *float64, color string) domain.ReferenceInterval {
	return domain.ReferenceInterval{Label: label, Min: min, Max: max, Color: color}
}

func bound(v float64) *float64 {
	return &v
}

// tScoreBands are the severity bands shared by the PROMIS T-score
// domains. Boundary adjacency is intentional: 54.9 then 55.
func tScoreBands() []domain.ReferenceInterval {
	return []domain.ReferenceInterval{
		interval("Within Normal Limits", 0, bound(54.9), "#4CAF50"),
		interval("Mild", 55, bound(59.9), "#FFC107"),
		interval("Moderate", 60, bound(69.9), "#FF9800"),
		interval("Severe", 70, nil, "#F44336"),
	}
}

func coreQuestions(prefix string, count int) []domain.QuestionRef {
	qs := make([]domain.QuestionRef, count)
	for i := range qs {
		qs[i] = domain.QuestionRef{ID: fmt.Sprintf("%s-%d", prefix, i+1), IsCore: true}
	}
	return qs
}

var registry = []domain.DomainConfig{
	{
		Name:                   "Depression",
		About:                  "Measures self-reported negative mood, loss of interest, and feelings of worthlessness over the past seven days.",
		AboutLink:              "https://www.healthmeasures.net/explore-measurement-systems/promis",
		IndividualsExperienced: "Around 1 in 5 adults experience a depressive episode at some point in their lives.",
		ScoringMethod:          domain.SUM,
		AnswerMapping:          domain.PROMIS,
		TScoreType:             domain.DEPRESSION,
		Questions:              coreQuestions("dep", 8),
		IntendedQuestionCount:  8,
		ReferenceIntervals:     tScoreBands(),
	},
	{
		Name:                   "Anxiety",
		About:                  "Measures self-reported fear, anxious misery, hyperarousal, and somatic symptoms related to arousal over the past seven days.",
		AboutLink:              "https://www.healthmeasures.net/explore-measurement-systems/promis",
		IndividualsExperienced: "Nearly 1 in 3 adults experience an anxiety disorder at some point in their lives.",
		ScoringMethod:          domain.SUM,
		AnswerMapping:          domain.PROMIS,
		TScoreType:             domain.ANXIETY,
		Questions:              coreQuestions("anx", 8),
		IntendedQuestionCount:  8,
		ReferenceIntervals:     tScoreBands(),
	},
	{
		Name:                   "Anger",
		About:                  "Measures self-reported angry mood, negative social cognitions, and efforts to control anger over the past seven days.",
		AboutLink:              "https://www.healthmeasures.net/explore-measurement-systems/promis",
		IndividualsExperienced: "Close to 8% of adults report difficulty controlling anger.",
		ScoringMethod:          domain.SUM,
		AnswerMapping:          domain.PROMIS,
		TScoreType:             domain.ANGER,
		Questions:              coreQuestions("ang", 5),
		IntendedQuestionCount:  5,
		ReferenceIntervals:     tScoreBands(),
	},
	{
		Name:                   "Sleep Disturbance",
		About:                  "Measures self-reported perceptions of sleep quality, sleep depth, and restoration associated with sleep over the past seven days.",
		AboutLink:              "https://www.healthmeasures.net/explore-measurement-systems/promis",
		IndividualsExperienced: "Roughly 1 in 3 adults report at least occasional sleep difficulties.",
		ScoringMethod:          domain.SUM,
		AnswerMapping:          domain.PROMIS,
		TScoreType:             domain.SLEEP,
		// slp-1 (sleep quality) and slp-2 (sleep was refreshing) are
		// positively worded and therefore reverse-scored.
		Questions: []domain.QuestionRef{
			{ID: "slp-1", IsCore: true, Reverse: true},
			{ID: "slp-2", IsCore: true, Reverse: true},
			{ID: "slp-3", IsCore: true},
			{ID: "slp-4", IsCore: true},
			{ID: "slp-5", IsCore: true},
			{ID: "slp-6", IsCore: true},
			{ID: "slp-7", IsCore: true},
			{ID: "slp-8", IsCore: true},
		},
		IntendedQuestionCount: 8,
		ReferenceIntervals:    tScoreBands(),
	},
	{
		Name:                   "Somatic Symptoms",
		About:                  "Measures the burden of physical symptoms such as pain, fatigue, and gastrointestinal complaints over the past four weeks (PHQ-15).",
		AboutLink:              "https://www.phqscreeners.com",
		IndividualsExperienced: "Up to 1 in 3 primary-care patients present with bothersome somatic symptoms.",
		ScoringMethod:          domain.SUM,
		AnswerMapping:          domain.PHQ15,
		TScoreType:             domain.NONE,
		Questions:              coreQuestions("som", 15),
		IntendedQuestionCount:  15,
		ReferenceIntervals: []domain.ReferenceInterval{
			interval("Minimal", 0, bound(4.9), "#4CAF50"),
			interval("Low", 5, bound(9.9), "#FFC107"),
			interval("Medium", 10, bound(14.9), "#FF9800"),
			interval("High", 15, nil, "#F44336"),
		},
	},
	{
		Name:                   "Substance Use",
		About:                  "Screens for problematic use of alcohol, tobacco, and other substances over the past twelve months.",
		AboutLink:              "https://nida.nih.gov/research-topics/screening-tools",
		IndividualsExperienced: "About 1 in 12 adults meet criteria for a substance use disorder in a given year.",
		ScoringMethod:          domain.AVERAGE,
		AnswerMapping:          domain.DEFAULT,
		TScoreType:             domain.NONE,
		Questions:              coreQuestions("sub", 4),
		IntendedQuestionCount:  4,
		ReferenceIntervals: []domain.ReferenceInterval{
			interval("Low Risk", 0, bound(0.9), "#4CAF50"),
			interval("Moderate Risk", 1, bound(2.4), "#FF9800"),
			interval("High Risk", 2.5, nil, "#F44336"),
		},
	},
	{
		Name:                   "Suicidal Ideation",
		About:                  "Safety screen for thoughts of self-harm over the past two weeks. Any elevated answer is the signal.",
		AboutLink:              "https://988lifeline.org",
		IndividualsExperienced: "About 4% of adults report serious thoughts of suicide in a given year.",
		ScoringMethod:          domain.MAX_THRESHOLD,
		AnswerMapping:          domain.DEFAULT,
		TScoreType:             domain.NONE,
		// si-2 and si-3 are follow-up trigger items owned by the survey
		// flow; only si-1 counts toward the score.
		Questions: []domain.QuestionRef{
			{ID: "si-1", IsCore: true},
			{ID: "si-2", IsCore: false},
			{ID: "si-3", IsCore: false},
		},
		IntendedQuestionCount: 1,
		ReferenceIntervals: []domain.ReferenceInterval{
			interval("No ideation reported", 0, bound(0.9), "#4CAF50"),
			interval("Further inquiry indicated", 1, nil, "#F44336"),
		},
	},
}

func init() {
	for i := range registry {
		if err := registry[i].Validate(); err != nil {
			panic(fmt.Sprintf("invalid domain registry entry %q: %v", registry[i].Name, err))
		}
	}
}

// Registry returns the configured assessment domains in report order.
// The returned slice is shared and must be treated as read-only.
func Registry() []domain.DomainConfig {
	return registry
}

// DomainByName returns the configuration for one domain, or nil when no
// domain with that name is configured.
func DomainByName(name string) *domain.DomainConfig {
	for i := range registry {
		if registry[i].Name == name {
			return &registry[i]
		}
	}
	return nil
}
