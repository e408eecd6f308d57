package domain

import (
	"encoding/json"
	"strings"
)

// AnswerKind discriminates the shapes a raw answer token can take.
type AnswerKind int

const (
	AnswerMissing AnswerKind = iota
	AnswerNumber
	AnswerText
)

// AnswerToken is the typed form of one raw answer. Intake payloads carry
// answers as arbitrary JSON values; collapsing them into this sum type at
// the boundary keeps stringly-typed ambiguity out of the scoring logic.
//
// ReverseOverride carries a per-answer reverse-scoring flag when the
// token arrived as a structured object ({value, isReversed}); it takes
// precedence over the question's configured flag.
type AnswerToken struct {
	Kind            AnswerKind
	Number          float64
	Text            string
	ReverseOverride *bool
}

// MissingAnswer is the token for an absent or empty answer.
func MissingAnswer() AnswerToken {
	return AnswerToken{Kind: AnswerMissing}
}

// NumberAnswer wraps a numeric answer value.
func NumberAnswer(v float64) AnswerToken {
	return AnswerToken{Kind: AnswerNumber, Number: v}
}

// TextAnswer wraps a free-text answer value.
func TextAnswer(s string) AnswerToken {
	return AnswerToken{Kind: AnswerText, Text: s}
}

// TokenFromRaw collapses an arbitrary raw answer value into an
// AnswerToken. It never fails: anything unrecognized becomes Missing and
// is simply not counted by the engine.
func TokenFromRaw(raw any) AnswerToken {
	switch v := raw.(type) {
	case nil:
		return MissingAnswer()
	case float64:
		return NumberAnswer(v)
	case float32:
		return NumberAnswer(float64(v))
	case int:
		return NumberAnswer(float64(v))
	case int64:
		return NumberAnswer(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return NumberAnswer(f)
		}
		return TextAnswer(v.String())
	case string:
		if strings.TrimSpace(v) == "" {
			return MissingAnswer()
		}
		return TextAnswer(v)
	case bool:
		if v {
			return NumberAnswer(1)
		}
		return NumberAnswer(0)
	case map[string]any:
		return tokenFromObject(v)
	default:
		return MissingAnswer()
	}
}

// tokenFromObject handles structured answers of the form
// {"value": ..., "isReversed": bool} and the legacy nested
// {"customAnswers": {"isReversed": bool}} shape.
func tokenFromObject(obj map[string]any) AnswerToken {
	token := MissingAnswer()
	if raw, ok := obj["value"]; ok {
		token = TokenFromRaw(raw)
	}

	if rev, ok := boolField(obj, "isReversed"); ok {
		token.ReverseOverride = &rev
	} else if nested, ok := obj["customAnswers"].(map[string]any); ok {
		if rev, ok := boolField(nested, "isReversed"); ok {
			token.ReverseOverride = &rev
		}
	}
	return token
}

func boolField(obj map[string]any, key string) (bool, bool) {
	v, ok := obj[key].(bool)
	return v, ok
}
