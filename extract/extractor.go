package extract

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/taxonomy"
)

// Default extraction parameters.
const (
	DefaultMinWeight = 0.5
	DefaultBlend     = 0.4
)

// Context confidence: base value plus a boost per neighbouring trigger term.
const (
	contextBase   = 0.6
	contextBoost  = 0.1
	contextRadius = 2
)

// CorpusStats exposes the background statistics used for inverse document
// frequency. The unit of counting is the chunk.
type CorpusStats interface {
	DocumentCount() int
	DocumentFrequency(term string) int
}

// Extractor turns text into concepts.
type Extractor struct {
	taxonomy  *taxonomy.Taxonomy
	minWeight float64
	blend     float64
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithTaxonomy replaces the built-in taxonomy.
func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(e *Extractor) error {
		if t == nil {
			return ErrTaxonomyRequired
		}
		e.taxonomy = t
		return nil
	}
}

// WithMinWeight sets the normalized statistical weight at which an
// unclaimed term still becomes a concept. Default is 0.5.
func WithMinWeight(w float64) Option {
	return func(e *Extractor) error {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: min weight %f", ErrInvalidParameter, w)
		}
		e.minWeight = w
		return nil
	}
}

// WithBlend sets the share of statistical weight in concept confidence; the
// remainder comes from category-match strength. Default is 0.4.
func WithBlend(b float64) Option {
	return func(e *Extractor) error {
		if b < 0 || b > 1 {
			return fmt.Errorf("%w: blend %f", ErrInvalidParameter, b)
		}
		e.blend = b
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an extractor over the default taxonomy.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		taxonomy:  taxonomy.Default(),
		minWeight: DefaultMinWeight,
		blend:     DefaultBlend,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

// Taxonomy returns the taxonomy used for matching.
func (e *Extractor) Taxonomy() *taxonomy.Taxonomy { return e.taxonomy }

type termStats struct {
	stem  string
	tf    int
	first int
}

// Extract returns the concepts of text, ordered by descending confidence,
// then longer label, then label. stats may be nil.
//
// Empty or whitespace-only text yields no concepts and no error. Non-empty
// text that yields no concepts returns an error wrapping
// core.ErrExtractionDegraded; callers treat it as "no concept evidence".
func (e *Extractor) Extract(text string, stats CorpusStats) ([]core.Concept, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	stems := Stems(text)
	if len(stems) == 0 {
		return nil, fmt.Errorf("%w: no content terms", core.ErrExtractionDegraded)
	}

	terms := make([]*termStats, 0, len(stems))
	byStem := make(map[string]*termStats, len(stems))
	for i, s := range stems {
		ts, ok := byStem[s]
		if !ok {
			ts = &termStats{stem: s, first: i}
			byStem[s] = ts
			terms = append(terms, ts)
		}
		ts.tf++
	}

	n := 0
	if stats != nil {
		n = stats.DocumentCount()
	}

	raw := make([]float64, len(terms))
	maxRaw := 0.0
	for i, ts := range terms {
		w := float64(ts.tf) / float64(len(stems))
		if n > 0 {
			df := stats.DocumentFrequency(ts.stem)
			w *= math.Log(float64(n+1)/float64(df+1)) + 1
		}
		raw[i] = w
		maxRaw = math.Max(maxRaw, w)
	}

	triggers := make([]bool, len(stems))
	matches := make(map[string][]taxonomy.Match, len(terms))
	for _, ts := range terms {
		matches[ts.stem] = e.taxonomy.Match(ts.stem)
	}
	for i, s := range stems {
		triggers[i] = len(matches[s]) > 0
	}

	concepts := make([]core.Concept, 0, len(terms))
	for i, ts := range terms {
		stat := raw[i] / maxRaw
		ms := matches[ts.stem]
		if stat < e.minWeight && len(ms) == 0 {
			continue
		}

		category, strength := e.categorize(ts, ms)
		importance := e.taxonomy.Importance(ts.stem)
		confidence := e.blend*stat + (1-e.blend)*strength*contextConfidence(stems, triggers, ts.first)

		concepts = append(concepts, core.Concept{
			Label:      ts.stem,
			Category:   category,
			Confidence: clip01(confidence),
			Weight:     stat * importance * e.taxonomy.Prior(category),
		})
	}

	if len(concepts) == 0 {
		return nil, fmt.Errorf("%w: %d terms below min weight %.2f", core.ErrExtractionDegraded, len(terms), e.minWeight)
	}

	sort.Slice(concepts, func(i, j int) bool {
		a, b := concepts[i], concepts[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		la, lb := utf8.RuneCountInString(a.Label), utf8.RuneCountInString(b.Label)
		if la != lb {
			return la > lb
		}
		return a.Label < b.Label
	})

	e.logger.Debug("extracted concepts", "terms", len(terms), "concepts", len(concepts), "corpus", n)
	return concepts, nil
}

// categorize picks the category with the highest accumulated score among the
// categories claiming the term. Ties go to the lower category.
func (e *Extractor) categorize(ts *termStats, ms []taxonomy.Match) (core.Category, float64) {
	category, strength, best := core.CategoryGeneral, 0.0, 0.0
	importance := e.taxonomy.Importance(ts.stem)
	for _, m := range ms {
		score := m.Strength * importance * float64(ts.tf) * e.taxonomy.Prior(m.Category)
		if score > best || (score == best && m.Category < category) {
			category, strength, best = m.Category, m.Strength, score
		}
	}
	return category, strength
}

// contextConfidence rewards trigger terms appearing near the term's first occurrence.
func contextConfidence(stems []string, triggers []bool, at int) float64 {
	conf := contextBase
	lo, hi := max(0, at-contextRadius), min(len(stems)-1, at+contextRadius)
	for i := lo; i <= hi; i++ {
		if i != at && triggers[i] && stems[i] != stems[at] {
			conf += contextBoost
		}
	}
	return min(conf, 1.0)
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
