package scoring

import (
	"github.com/mindwell-assessment-server/internal/domain"
)

// Raw-score to T-score conversion tables for the PROMIS short forms this
// assessment administers. T-scores are population-normed: mean 50, SD 10
// in the US general population; higher is more severe.
//
// Raw totals outside a table's key range have no defined T-score and
// yield no score rather than an extrapolation.

// depressionTScores covers PROMIS Emotional Distress - Depression 8a,
// raw range 8-40.
var depressionTScores = map[int]float64{
	8: 37.1, 9: 43.3, 10: 46.2, 11: 48.2, 12: 49.8, 13: 51.2, 14: 52.3,
	15: 53.4, 16: 54.3, 17: 55.3, 18: 56.2, 19: 57.1, 20: 57.9, 21: 58.8,
	22: 59.7, 23: 60.7, 24: 61.6, 25: 62.5, 26: 63.5, 27: 64.4, 28: 65.4,
	29: 66.4, 30: 67.4, 31: 68.3, 32: 69.3, 33: 70.4, 34: 71.4, 35: 72.5,
	36: 73.6, 37: 74.8, 38: 76.2, 39: 77.9, 40: 81.1,
}

// anxietyTScores covers PROMIS Emotional Distress - Anxiety 8a,
// raw range 8-40.
var anxietyTScores = map[int]float64{
	8: 37.1, 9: 43.2, 10: 45.9, 11: 47.8, 12: 49.4, 13: 50.8, 14: 52.1,
	15: 53.2, 16: 54.3, 17: 55.4, 18: 56.4, 19: 57.4, 20: 58.4, 21: 59.4,
	22: 60.3, 23: 61.3, 24: 62.2, 25: 63.1, 26: 64.1, 27: 65.0, 28: 66.0,
	29: 66.9, 30: 67.9, 31: 68.9, 32: 69.9, 33: 71.0, 34: 72.1, 35: 73.3,
	36: 74.6, 37: 76.0, 38: 77.6, 39: 79.5, 40: 82.7,
}

// angerTScores covers PROMIS Emotional Distress - Anger 5a,
// raw range 5-25.
var angerTScores = map[int]float64{
	5: 32.9, 6: 38.1, 7: 41.3, 8: 44.0, 9: 46.3, 10: 48.4, 11: 50.5,
	12: 52.3, 13: 54.1, 14: 55.8, 15: 57.6, 16: 59.3, 17: 61.1, 18: 62.9,
	19: 64.9, 20: 66.9, 21: 69.0, 22: 71.2, 23: 73.6, 24: 76.3, 25: 79.9,
}

// sleepTScores covers PROMIS Sleep Disturbance 8b, raw range 8-40.
var sleepTScores = map[int]float64{
	8: 28.9, 9: 33.1, 10: 35.9, 11: 38.0, 12: 39.8, 13: 41.4, 14: 42.9,
	15: 44.2, 16: 45.5, 17: 46.7, 18: 47.9, 19: 49.0, 20: 50.1, 21: 51.2,
	22: 52.4, 23: 53.5, 24: 54.6, 25: 55.8, 26: 57.0, 27: 58.2, 28: 59.4,
	29: 60.7, 30: 62.1, 31: 63.5, 32: 64.9, 33: 66.4, 34: 68.0, 35: 69.8,
	36: 71.7, 37: 73.9, 38: 76.5, 39: 79.5, 40: 83.0,
}

var tScoreTables = map[domain.TScoreType]map[int]float64{
	domain.DEPRESSION: depressionTScores,
	domain.ANXIETY:    anxietyTScores,
	domain.ANGER:      angerTScores,
	domain.SLEEP:      sleepTScores,
}

// LookupTScore converts a prorated raw score to its T-score. Returns nil
// when the type has no table or the raw score is outside the table's
// defined keys.
func LookupTScore(tScoreType domain.TScoreType, rawScore int) *float64 {
	table, ok := tScoreTables[tScoreType]
	if !ok {
		return nil
	}
	t, ok := table[rawScore]
	if !ok {
		return nil
	}
	return &t
}
