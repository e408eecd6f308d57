// Package scoring implements the deterministic assessment scoring engine:
// answer normalization, domain score aggregation, T-score conversion and
// severity interpretation over a fixed clinical configuration table.
//
// The engine is a pure computation. It holds no mutable state, performs
// no I/O, and is safe to invoke concurrently for independent submissions.
package scoring

import (
	"strconv"
	"strings"

	"github.com/mindwell-assessment-server/internal/domain"
)

// phraseValue maps a legacy free-text answer phrase to its base severity
// value. Matching is case-insensitive substring containment, scanned in
// declaration order with first match winning.
type phraseValue struct {
	phrase string
	value  float64
}

// phraseTable is the best-effort natural-language recovery table for
// legacy text answers on the 0-4 base scale. Numeric tokens always take
// precedence over this table.
var phraseTable = []phraseValue{
	{"not at all", 0},
	{"never", 0},
	{"none", 0},
	{"a little bit", 1},
	{"slight", 1},
	{"rare", 1},
	{"mild", 1},
	{"somewhat", 2},
	{"sometimes", 2},
	{"occasional", 2},
	{"moderate", 2},
	{"quite a bit", 3},
	{"often", 3},
	{"frequent", 3},
	{"very much", 4},
	{"always", 4},
	{"severe", 4},
	{"extreme", 4},
}

// BaseValue converts one answer token into a numeric value on the common
// base scale. Numeric tokens parse directly; text tokens fall back to the
// phrase table. Returns nil for missing, empty or unmatched tokens.
func BaseValue(token domain.AnswerToken) *float64 {
	switch token.Kind {
	case domain.AnswerNumber:
		v := token.Number
		return &v
	case domain.AnswerText:
		text := strings.TrimSpace(token.Text)
		if text == "" {
			return nil
		}
		if parsed, err := strconv.ParseFloat(text, 64); err == nil {
			return &parsed
		}
		lower := strings.ToLower(text)
		for _, pv := range phraseTable {
			if strings.Contains(lower, pv.phrase) {
				v := pv.value
				return &v
			}
		}
		return nil
	default:
		return nil
	}
}

// Normalize maps one answer token onto the domain's instrument scale.
// reverse applies PROMIS reverse scoring; a per-token override supplied
// with a structured answer wins over the configured flag. Returns nil
// when the token carries no usable value.
func Normalize(token domain.AnswerToken, mapping domain.AnswerMapping, reverse bool) *float64 {
	base := BaseValue(token)
	if base == nil {
		return nil
	}
	if token.ReverseOverride != nil {
		reverse = *token.ReverseOverride
	}

	switch mapping {
	case domain.PROMIS:
		// Shift 0-4 to the PROMIS 1-5 Likert convention.
		v := *base + 1
		if reverse {
			v = 6 - v
		}
		return &v
	case domain.PHQ15:
		// Collapse the 0-4 base scale to PHQ-15's 0-2 scale.
		var v float64
		switch {
		case *base < 1:
			v = 0
		case *base < 2:
			v = 1
		default:
			v = 2
		}
		return &v
	default:
		return base
	}
}
