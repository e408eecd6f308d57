package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-assessment-server/internal/domain"
)

func TestRegistry_AllConfigsValid(t *testing.T) {
	require.NotEmpty(t, Registry())
	for _, cfg := range Registry() {
		assert.NoError(t, cfg.Validate(), cfg.Name)
	}
}

func TestRegistry_IntervalsCoverFromZero(t *testing.T) {
	for _, cfg := range Registry() {
		first := cfg.ReferenceIntervals[0]
		assert.Equal(t, 0.0, first.Min, "%s: first interval must start at 0", cfg.Name)

		last := cfg.ReferenceIntervals[len(cfg.ReferenceIntervals)-1]
		assert.Nil(t, last.Max, "%s: last interval must be unbounded above", cfg.Name)
	}
}

func TestRegistry_TScoreDomainsHaveTables(t *testing.T) {
	for _, cfg := range Registry() {
		if !cfg.TScoreType.HasTable() {
			continue
		}
		// Every T-score domain must be able to convert the raw score of
		// an all-minimum and an all-maximum submission.
		min := cfg.IntendedQuestionCount * 1
		max := cfg.IntendedQuestionCount * 5
		assert.NotNil(t, LookupTScore(cfg.TScoreType, min), "%s min raw %d", cfg.Name, min)
		assert.NotNil(t, LookupTScore(cfg.TScoreType, max), "%s max raw %d", cfg.Name, max)
	}
}

func TestDomainByName(t *testing.T) {
	assert.NotNil(t, DomainByName("Depression"))
	assert.Nil(t, DomainByName("Phrenology"))
}

func TestRegistry_CoreQuestionFiltering(t *testing.T) {
	ideation := DomainByName("Suicidal Ideation")
	require.NotNil(t, ideation)

	core := ideation.CoreQuestions()
	require.Len(t, core, 1)
	assert.Equal(t, "si-1", core[0].ID)
}

func TestLookupTScore_UnknownType(t *testing.T) {
	assert.Nil(t, LookupTScore(domain.NONE, 20))
	assert.Nil(t, LookupTScore(domain.DEPRESSION, 7))
	assert.Nil(t, LookupTScore(domain.DEPRESSION, 41))
}
