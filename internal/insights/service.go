// Package insights fills the per-domain narrative text of finished
// reports. Generation happens after the scored report is persisted, so
// a slow or failing completion endpoint never delays or blocks scoring.
package insights

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/mindwell-assessment-server/internal/domain"
	"github.com/mindwell-assessment-server/pkg/narrative"
)

// ReportUpdater persists insights back onto a stored report.
type ReportUpdater interface {
	UpdateInsights(ctx context.Context, report *domain.IndividualData) error
}

// Service generates narratives for each domain of a report and stores
// the enriched report. A process-local LRU sits in front of the
// narrative client so repeated identical results within one process do
// not touch the endpoint at all.
type Service struct {
	generator narrative.Generator
	updater   ReportUpdater
	memCache  *expirable.LRU[string, string]
	enabled   bool
	log       *logrus.Logger

	mu          sync.Mutex
	subscribers map[string][]chan *domain.IndividualData
}

// NewService creates an insights service. generator may be nil when
// insights are disabled; every report then completes with empty
// narrative fields.
func NewService(config domain.InsightsConfig, generator narrative.Generator, updater ReportUpdater, logger *logrus.Logger) *Service {
	size := config.MemoryCacheMax
	if size == 0 {
		size = 1000
	}

	return &Service{
		generator:   generator,
		updater:     updater,
		memCache:    expirable.NewLRU[string, string](size, nil, config.MemoryCacheTTL),
		enabled:     config.Enabled && generator != nil,
		log:         logger,
		subscribers: make(map[string][]chan *domain.IndividualData),
	}
}

// Enabled reports whether narrative generation is configured.
func (s *Service) Enabled() bool {
	return s.enabled
}

// GenerateAndStore produces narratives for every domain of the report,
// persists the enriched report, and notifies stream subscribers.
// Individual domain failures degrade to an empty narrative for that
// domain; only persistence errors are returned.
func (s *Service) GenerateAndStore(ctx context.Context, report *domain.IndividualData) (*domain.IndividualData, error) {
	insights := make([]string, len(report.Domains))

	if s.enabled {
		for i, d := range report.Domains {
			text, err := s.generateOne(ctx, d)
			if err != nil {
				s.log.WithFields(logrus.Fields{
					"submission_id": report.IndividualID,
					"domain":        d.Name,
				}).WithError(err).Warn("Narrative generation failed, continuing without")
				continue
			}
			insights[i] = text
		}
	}

	enriched, err := report.WithInsights(insights)
	if err != nil {
		return nil, fmt.Errorf("failed to attach insights: %w", err)
	}

	if err := s.updater.UpdateInsights(ctx, enriched); err != nil {
		return nil, fmt.Errorf("failed to store insights: %w", err)
	}

	s.publish(enriched)
	return enriched, nil
}

// generateOne resolves a single domain narrative through the memory
// cache and then the configured generator. Prompts carry only the
// domain result, never who it belongs to, so cached text is safe to
// serve to anyone with the same result.
func (s *Service) generateOne(ctx context.Context, d domain.DomainResult) (string, error) {
	key := memCacheKey(d)
	if text, ok := s.memCache.Get(key); ok {
		return text, nil
	}

	text, err := s.generator.Generate(ctx, narrative.Prompt{
		DomainName:     d.Name,
		About:          d.About,
		Interpretation: d.UserInterpretation,
		Score:          d.Score,
		TScore:         d.TScore,
	})
	if err != nil {
		return "", err
	}

	s.memCache.Add(key, text)
	return text, nil
}

// Subscribe registers interest in the enriched report for a submission.
// The returned channel receives at most one report. The cancel function
// must be called when the subscriber goes away.
func (s *Service) Subscribe(submissionID string) (<-chan *domain.IndividualData, func()) {
	ch := make(chan *domain.IndividualData, 1)

	s.mu.Lock()
	s.subscribers[submissionID] = append(s.subscribers[submissionID], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subscribers[submissionID]
		for i, c := range subs {
			if c == ch {
				s.subscribers[submissionID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(s.subscribers[submissionID]) == 0 {
			delete(s.subscribers, submissionID)
		}
	}

	return ch, cancel
}

// publish delivers the enriched report to all waiting subscribers.
func (s *Service) publish(report *domain.IndividualData) {
	s.mu.Lock()
	subs := s.subscribers[report.IndividualID]
	delete(s.subscribers, report.IndividualID)
	s.mu.Unlock()

	for _, ch := range subs {
		ch <- report
		close(ch)
	}
}

// memCacheKey identifies a domain result for narrative reuse across
// submissions.
func memCacheKey(d domain.DomainResult) string {
	score := "nil"
	if d.Score != nil {
		score = fmt.Sprintf("%.1f", *d.Score)
	}
	return d.Name + ":" + d.UserInterpretation + ":" + score
}
