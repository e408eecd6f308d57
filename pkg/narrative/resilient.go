package narrative

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Generator produces a narrative for one scored domain.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ResilientClient wraps a Generator with a circuit breaker and an
// optional Redis cache. When the breaker is open or the cache and the
// endpoint both fail, callers receive the error and decide how to
// degrade; this type never fabricates text.
type ResilientClient struct {
	client  Generator
	cache   *Cache
	breaker *gobreaker.CircuitBreaker
	model   string
	log     *logrus.Logger
}

// NewResilientClient creates a resilient narrative client. cache may be
// nil when Redis is not configured.
func NewResilientClient(client Generator, cache *Cache, model string, logger *logrus.Logger) *ResilientClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Narrative",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientClient{
		client:  client,
		cache:   cache,
		breaker: breaker,
		model:   model,
		log:     logger,
	}
}

// Generate returns a narrative for the prompt, consulting the cache
// first and recording successful completions back into it.
func (r *ResilientClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if r.cache != nil {
		text, hit, err := r.cache.Get(ctx, r.model, prompt)
		if err != nil {
			r.log.WithError(err).Debug("Narrative cache lookup failed")
		}
		if hit {
			return text, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Generate(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed for %s: %w", prompt.DomainName, err)
	}

	text := result.(string)

	if r.cache != nil {
		if err := r.cache.Set(ctx, r.model, prompt, text, 0); err != nil {
			r.log.WithError(err).Debug("Narrative cache write failed")
		}
	}

	return text, nil
}
