// Package narrative generates per-domain supportive text for assessment
// reports by calling an OpenAI-compatible chat completion endpoint. The
// report itself never depends on this package succeeding; callers treat
// an empty narrative as an acceptable outcome.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mindwell-assessment-server/internal/domain"
)

// Prompt carries the per-domain facts the narrative is built from. It
// holds no personal identifiers: generated text is cached and reused
// across submissions with the same result, so nothing person-specific
// may reach the model.
type Prompt struct {
	DomainName     string
	About          string
	Interpretation string
	Score          *float64
	TScore         *float64
}

// Client handles interactions with the completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new narrative completion client.
func NewClient(config domain.InsightsConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// chatMessage is one message in a chat completion request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents the chat completion request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// chatResponse represents the chat completion response payload.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are a supportive mental-wellness assistant. " +
	"Write a short, warm, non-clinical paragraph addressed directly to " +
	"the reader, without using any name. Acknowledge their result, " +
	"suggest one or two practical next steps, and never diagnose or " +
	"alarm. Keep it under 120 words."

// Generate produces a narrative for one scored domain.
func (c *Client) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(prompt)},
		},
		MaxTokens:   256,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("completion endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// buildUserMessage renders the prompt facts for the model. Scores that
// are absent (incomplete domains) are stated as such rather than omitted
// so the model does not invent numbers.
func buildUserMessage(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment area: %s\n", p.DomainName)
	if p.About != "" {
		fmt.Fprintf(&b, "About this area: %s\n", p.About)
	}
	fmt.Fprintf(&b, "Result: %s\n", p.Interpretation)
	if p.Score != nil {
		fmt.Fprintf(&b, "Score: %.1f\n", *p.Score)
	} else {
		b.WriteString("Score: not available (section incomplete)\n")
	}
	if p.TScore != nil {
		fmt.Fprintf(&b, "Standardized score: %.1f\n", *p.TScore)
	}
	return b.String()
}
