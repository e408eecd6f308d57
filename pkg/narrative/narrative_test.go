package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindwell-assessment-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testPrompt() Prompt {
	score := 57.9
	return Prompt{
		DomainName:     "Depression",
		About:          "How often you have felt down or hopeless.",
		Interpretation: "Mild",
		Score:          &score,
		TScore:         &score,
	}
}

func TestClient_Generate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "Depression")
		assert.Contains(t, req.Messages[1].Content, "Mild")
		assert.NotContains(t, req.Messages[1].Content, "Name:",
			"prompts must not carry personal identifiers")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  You're doing well.  "}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(domain.InsightsConfig{
		BaseURL:   server.URL,
		APIKey:    "secret",
		Model:     "test-model",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	})

	text, err := client.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "You're doing well.", text)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestClient_Generate_IncompleteScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[1].Content, "not available")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(domain.InsightsConfig{
		BaseURL:   server.URL,
		Model:     "test-model",
		RateLimit: 100,
	})

	prompt := testPrompt()
	prompt.Score = nil
	prompt.TScore = nil
	prompt.Interpretation = domain.InterpretationIncomplete

	_, err := client.Generate(context.Background(), prompt)
	require.NoError(t, err)
}

func TestClient_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(domain.InsightsConfig{
		BaseURL:   server.URL,
		Model:     "test-model",
		RateLimit: 100,
	})

	_, err := client.Generate(context.Background(), testPrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(domain.InsightsConfig{
		BaseURL:   server.URL,
		Model:     "test-model",
		RateLimit: 100,
	})

	_, err := client.Generate(context.Background(), testPrompt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

// failingGenerator always errors, for breaker tests.
type failingGenerator struct {
	calls int
}

func (f *failingGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	f.calls++
	return "", errors.New("endpoint down")
}

func TestResilientClient_BreakerOpensAfterFailures(t *testing.T) {
	failing := &failingGenerator{}
	resilient := NewResilientClient(failing, nil, "test-model", testLogger())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := resilient.Generate(ctx, testPrompt())
		require.Error(t, err)
	}

	// Once open, the breaker stops calling through
	callsWhenOpen := failing.calls
	_, err := resilient.Generate(ctx, testPrompt())
	require.Error(t, err)
	assert.Equal(t, callsWhenOpen, failing.calls, "open breaker should short-circuit")
}

// staticGenerator returns a fixed narrative.
type staticGenerator struct {
	text  string
	calls int
}

func (s *staticGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	s.calls++
	return s.text, nil
}

func TestResilientClient_PassThrough(t *testing.T) {
	static := &staticGenerator{text: "take a walk"}
	resilient := NewResilientClient(static, nil, "test-model", testLogger())

	text, err := resilient.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "take a walk", text)
	assert.Equal(t, 1, static.calls)
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := cacheKey("m", testPrompt())
	b := cacheKey("m", testPrompt())
	assert.Equal(t, a, b)

	// Interpretation changes the key
	p := testPrompt()
	p.Interpretation = "Moderate"
	assert.NotEqual(t, a, cacheKey("m", p))

	// Nil and non-nil scores differ
	p = testPrompt()
	p.Score = nil
	assert.NotEqual(t, a, cacheKey("m", p))
}
