package selector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
)

// Scorer is the part of search.Scorer the selector consults.
type Scorer interface {
	Evaluate(ctx context.Context, q *core.Query) ([]core.RankedChunk, error)
	ConceptScore(rc core.RankedChunk) float64
	MinRelevance() float64
}

// Thresholds tune the rule chain.
type Thresholds struct {
	// GreetingMaxLength is the rune count below which a query counts as short.
	GreetingMaxLength int
	// GreetingMaxWords is the word count at or below which a query counts as short.
	GreetingMaxWords int
	// ConceptFloor is the confidence a non-general concept needs to count as a domain concept.
	ConceptFloor float64
	// WeatherThreshold is the confidence external-data intent needs to fire.
	WeatherThreshold float64
	// ConceptThreshold is the concept sub-score concept retrieval must exceed.
	ConceptThreshold float64
}

// DefaultThresholds returns the default rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GreetingMaxLength: 10,
		GreetingMaxWords:  2,
		ConceptFloor:      0.3,
		WeatherThreshold:  0.7,
		ConceptThreshold:  0.5,
	}
}

// Validate checks that every threshold is in range.
func (t Thresholds) Validate() error {
	if t.GreetingMaxLength < 0 || t.GreetingMaxWords < 0 {
		return fmt.Errorf("%w: greeting limits must not be negative", ErrInvalidThreshold)
	}
	for name, v := range map[string]float64{
		"concept floor":     t.ConceptFloor,
		"weather threshold": t.WeatherThreshold,
		"concept threshold": t.ConceptThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s %f outside [0,1]", ErrInvalidThreshold, name, v)
		}
	}
	return nil
}

// Outcome is the selector's answer for one query. Candidates holds the
// ranked context for retrieval actions and is empty otherwise.
type Outcome struct {
	Decision   core.ActionDecision
	Candidates []core.RankedChunk
}

// Selector picks one action per query. It holds no per-query state.
type Selector struct {
	scorer     Scorer
	locator    ai.LocationExtractor
	thresholds Thresholds
	topK       int
	rules      []rule
	logger     *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector) error

// WithThresholds replaces the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(s *Selector) error {
		if err := t.Validate(); err != nil {
			return err
		}
		s.thresholds = t
		return nil
	}
}

// WithLocator sets the location extractor used by the external-data rule.
// Default is a PatternLocator.
func WithLocator(l ai.LocationExtractor) Option {
	return func(s *Selector) error {
		if l == nil {
			l = NewPatternLocator()
		}
		s.locator = l
		return nil
	}
}

// WithTopK caps the candidates returned with retrieval decisions.
// Default is 5.
func WithTopK(k int) Option {
	return func(s *Selector) error {
		if k < 1 {
			return fmt.Errorf("%w: top k %d", ErrInvalidThreshold, k)
		}
		s.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a selector backed by scorer.
func New(scorer Scorer, opts ...Option) (*Selector, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	s := &Selector{
		scorer:     scorer,
		locator:    NewPatternLocator(),
		thresholds: DefaultThresholds(),
		topK:       5,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "selector")
	s.rules = []rule{
		greetingRule{},
		externalDataRule{},
		conceptRetrievalRule{},
		semanticFallbackRule{},
		exhaustedRule{},
	}

	return s, nil
}

// Thresholds returns the configured thresholds.
func (s *Selector) Thresholds() Thresholds { return s.thresholds }

// Decide returns exactly one decision for q. A nil query is treated as empty.
func (s *Selector) Decide(ctx context.Context, q *core.Query) Outcome {
	if q == nil {
		q = &core.Query{}
	}
	ev := newEvaluation(s, q)
	for _, r := range s.rules {
		out, ok := r.apply(ctx, ev)
		if !ok {
			continue
		}
		out.Decision.Rule = r.name()
		s.logger.Debug("decision",
			"rule", out.Decision.Rule,
			"action", out.Decision.Action.String(),
			"confidence", out.Decision.Confidence,
			"candidates", len(out.Candidates))
		return out
	}
	return exhausted(ev) // unreachable, exhaustedRule always fires
}
