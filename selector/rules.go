package selector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
)

// Rule names, reported in core.ActionDecision.Rule.
const (
	RuleGreeting         = "greeting"
	RuleExternalData     = "external-data"
	RuleConceptRetrieval = "concept-retrieval"
	RuleSemanticFallback = "semantic-fallback"
	RuleExhausted        = "exhausted"
)

// NoMatchRationale marks decisions where no candidate cleared the floor.
const NoMatchRationale = "no matching context found"

type rule interface {
	name() string
	apply(ctx context.Context, ev *evaluation) (Outcome, bool)
}

// evaluation carries one query through the chain. Candidates are scored on
// first use so greeting and external-data decisions never call the scorer.
type evaluation struct {
	s     *Selector
	query *core.Query
	words []string

	scored     bool
	candidates []core.RankedChunk
}

func newEvaluation(s *Selector, q *core.Query) *evaluation {
	return &evaluation{s: s, query: q, words: extract.Words(q.Text)}
}

func (ev *evaluation) evaluate(ctx context.Context) []core.RankedChunk {
	if ev.scored {
		return ev.candidates
	}
	ev.scored = true
	candidates, err := ev.s.scorer.Evaluate(ctx, ev.query)
	if err != nil {
		ev.s.logger.Warn("scoring failed, continuing without candidates", "err", err)
		return nil
	}
	ev.candidates = candidates
	return candidates
}

// domainConcepts returns the non-general concepts at or above the concept floor.
func (ev *evaluation) domainConcepts() []core.Concept {
	var out []core.Concept
	for _, c := range ev.query.Concepts {
		if c.Category != core.CategoryGeneral && c.Confidence >= ev.s.thresholds.ConceptFloor {
			out = append(out, c)
		}
	}
	return out
}

type greetingRule struct{}

func (greetingRule) name() string { return RuleGreeting }

func (greetingRule) apply(_ context.Context, ev *evaluation) (Outcome, bool) {
	t := ev.s.thresholds
	decision := core.ActionDecision{Action: core.ActionDirectResponse}

	if len(ev.query.Concepts) == 0 {
		decision.Confidence = 1
		decision.Rationale = fmt.Sprintf("rule %s: query has no concepts, answering directly", RuleGreeting)
		return Outcome{Decision: decision}, true
	}
	if len(ev.domainConcepts()) > 0 {
		return Outcome{}, false
	}
	if phrase, ok := matchGreeting(ev.words); ok {
		decision.Confidence = 0.9
		decision.Rationale = fmt.Sprintf("rule %s: matched chit-chat phrase %q and no domain concept reaches %.2f (concepts: %s)",
			RuleGreeting, phrase, t.ConceptFloor, describeConcepts(ev.query.Concepts))
		return Outcome{Decision: decision}, true
	}
	runes := utf8.RuneCountInString(strings.TrimSpace(ev.query.Text))
	if runes < t.GreetingMaxLength || len(ev.words) <= t.GreetingMaxWords {
		decision.Confidence = 0.8
		decision.Rationale = fmt.Sprintf("rule %s: short query (%d chars, %d words) and no domain concept reaches %.2f (concepts: %s)",
			RuleGreeting, runes, len(ev.words), t.ConceptFloor, describeConcepts(ev.query.Concepts))
		return Outcome{Decision: decision}, true
	}
	return Outcome{}, false
}

type externalDataRule struct{}

func (externalDataRule) name() string { return RuleExternalData }

func (externalDataRule) apply(ctx context.Context, ev *evaluation) (Outcome, bool) {
	var weather *core.Concept
	for i := range ev.query.Concepts {
		c := &ev.query.Concepts[i]
		if c.Category == core.CategoryWeather && (weather == nil || c.Confidence > weather.Confidence) {
			weather = c
		}
	}
	if weather == nil {
		return Outcome{}, false
	}

	location, ok, err := ev.s.locator.ExtractLocation(ctx, ev.query.Text)
	if err != nil {
		ev.s.logger.Warn("location extraction failed", "err", err)
		return Outcome{}, false
	}
	if !ok || location == "" {
		return Outcome{}, false
	}

	confidence := 0.6 + 0.4*weather.Confidence
	threshold := ev.s.thresholds.WeatherThreshold
	if confidence < threshold {
		return Outcome{}, false
	}
	return Outcome{Decision: core.ActionDecision{
		Action:     core.ActionExternalDataIntent,
		Confidence: confidence,
		Location:   location,
		Rationale: fmt.Sprintf("rule %s: weather concept %q (confidence %.2f) with location %q, intent confidence %.2f >= %.2f",
			RuleExternalData, weather.Label, weather.Confidence, location, confidence, threshold),
	}}, true
}

type conceptRetrievalRule struct{}

func (conceptRetrievalRule) name() string { return RuleConceptRetrieval }

func (conceptRetrievalRule) apply(ctx context.Context, ev *evaluation) (Outcome, bool) {
	floor := ev.s.scorer.MinRelevance()
	var (
		ranked []core.RankedChunk
		best   float64
		top    *core.Chunk
	)
	for _, rc := range ev.evaluate(ctx) {
		if rc.Score < floor {
			continue
		}
		ranked = append(ranked, rc)
		if cs := ev.s.scorer.ConceptScore(rc); cs > best {
			best, top = cs, rc.Chunk
		}
	}
	threshold := ev.s.thresholds.ConceptThreshold
	if top == nil || best <= threshold {
		return Outcome{}, false
	}
	return Outcome{
		Decision: core.ActionDecision{
			Action:     core.ActionConceptRetrieval,
			Confidence: best,
			Rationale: fmt.Sprintf("rule %s: concept score %.2f > %.2f for chunk %s of document %q (concepts: %s)",
				RuleConceptRetrieval, best, threshold, top.Id, top.DocumentId, describeConcepts(ev.query.Concepts)),
		},
		Candidates: truncate(ranked, ev.s.topK),
	}, true
}

type semanticFallbackRule struct{}

func (semanticFallbackRule) name() string { return RuleSemanticFallback }

func (semanticFallbackRule) apply(ctx context.Context, ev *evaluation) (Outcome, bool) {
	floor := ev.s.scorer.MinRelevance()
	var hits []core.RankedChunk
	for _, rc := range ev.evaluate(ctx) {
		if rc.Semantic >= floor {
			hits = append(hits, rc)
		}
	}
	if len(hits) == 0 {
		return Outcome{}, false
	}
	slices.SortStableFunc(hits, func(a, b core.RankedChunk) int {
		return cmp.Compare(b.Semantic, a.Semantic)
	})
	best := hits[0]
	return Outcome{
		Decision: core.ActionDecision{
			Action:     core.ActionSemanticSearch,
			Confidence: best.Semantic,
			Rationale: fmt.Sprintf("rule %s: no concept match above %.2f, semantic similarity %.2f >= floor %.2f for chunk %s of document %q",
				RuleSemanticFallback, ev.s.thresholds.ConceptThreshold, best.Semantic, floor, best.Chunk.Id, best.Chunk.DocumentId),
		},
		Candidates: truncate(hits, ev.s.topK),
	}, true
}

type exhaustedRule struct{}

func (exhaustedRule) name() string { return RuleExhausted }

func (exhaustedRule) apply(_ context.Context, ev *evaluation) (Outcome, bool) {
	return exhausted(ev), true
}

func exhausted(ev *evaluation) Outcome {
	return Outcome{Decision: core.ActionDecision{
		Action:     core.ActionDirectResponse,
		Confidence: 0.5,
		Rule:       RuleExhausted,
		Rationale: fmt.Sprintf("rule %s: %s, no candidate reached the relevance floor %.2f (concepts: %s)",
			RuleExhausted, NoMatchRationale, ev.s.scorer.MinRelevance(), describeConcepts(ev.query.Concepts)),
	}}
}

func truncate(rcs []core.RankedChunk, k int) []core.RankedChunk {
	if len(rcs) > k {
		return rcs[:k]
	}
	return rcs
}

// describeConcepts renders up to five concepts as label[category confidence].
func describeConcepts(concepts []core.Concept) string {
	if len(concepts) == 0 {
		return "none"
	}
	parts := make([]string, 0, min(len(concepts), 5))
	for i, c := range concepts {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("+%d more", len(concepts)-5))
			break
		}
		parts = append(parts, fmt.Sprintf("%s[%s %.2f]", c.Label, c.Category, c.Confidence))
	}
	return strings.Join(parts, ", ")
}
