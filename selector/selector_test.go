package selector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptrag/ai/mock"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
	"github.com/poiesic/conceptrag/index"
	"github.com/poiesic/conceptrag/search"
)

type fakeScorer struct {
	results []core.RankedChunk
	err     error
	calls   int
}

func (f *fakeScorer) Evaluate(context.Context, *core.Query) ([]core.RankedChunk, error) {
	f.calls++
	return f.results, f.err
}

func (f *fakeScorer) ConceptScore(rc core.RankedChunk) float64 {
	return (0.5*rc.Overlap + 0.2*rc.Coherence) / 0.7
}

func (f *fakeScorer) MinRelevance() float64 { return 0.15 }

func concept(label string, category core.Category, confidence float64) core.Concept {
	return core.Concept{Label: label, Category: category, Confidence: confidence, Weight: 1}
}

func ranked(id string, overlap, semantic, coherence float64) core.RankedChunk {
	rc := core.RankedChunk{
		Chunk:     &core.Chunk{Id: id, DocumentId: strings.Split(id, "-")[0]},
		Overlap:   overlap,
		Semantic:  semantic,
		Coherence: coherence,
	}
	rc.Score = 0.5*overlap + 0.3*semantic + 0.2*coherence
	return rc
}

func newSelector(t *testing.T, scorer Scorer, opts ...Option) *Selector {
	t.Helper()
	s, err := New(scorer, opts...)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrScorerRequired)

	bad := DefaultThresholds()
	bad.ConceptThreshold = 1.5
	_, err = New(&fakeScorer{}, WithThresholds(bad))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = New(&fakeScorer{}, WithTopK(0))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	s, err := New(&fakeScorer{}, WithLocator(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), s.Thresholds())
}

func TestDecide_Greeting(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		query    core.Query
		fires    bool
		contains string
	}{
		{"salutation", core.Query{Text: "Hello!", Concepts: []core.Concept{concept("hello", core.CategoryGeneral, 0.6)}}, true, `"hello"`},
		{"no concepts", core.Query{Text: "how are you"}, true, "no concepts"},
		{"short query", core.Query{Text: "ok then", Concepts: []core.Concept{concept("ok", core.CategoryGeneral, 0.6)}}, true, "short query"},
		{"greeting with domain concept", core.Query{Text: "hi, what are the work hours", Concepts: []core.Concept{concept("work", core.CategoryBusiness, 0.8)}}, false, ""},
		{"short domain query", core.Query{Text: "refund", Concepts: []core.Concept{concept("refund", core.CategoryFinancial, 0.7)}}, false, ""},
		{"weak domain concept", core.Query{Text: "hey there", Concepts: []core.Concept{concept("there", core.CategoryLocation, 0.2)}}, true, `"hey"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{}
			s := newSelector(t, scorer)
			out := s.Decide(ctx, &tt.query)

			if tt.fires {
				assert.Equal(t, core.ActionDirectResponse, out.Decision.Action)
				assert.Equal(t, RuleGreeting, out.Decision.Rule)
				assert.Contains(t, out.Decision.Rationale, tt.contains)
				assert.Zero(t, scorer.calls, "greetings never consult the scorer")
			} else {
				assert.NotEqual(t, RuleGreeting, out.Decision.Rule)
			}
		})
	}
}

func TestDecide_ExternalData(t *testing.T) {
	ctx := context.Background()
	weather := []core.Concept{
		concept("weather", core.CategoryWeather, 0.76),
		concept("london", core.CategoryGeneral, 0.4),
	}

	t.Run("weather with location", func(t *testing.T) {
		scorer := &fakeScorer{}
		out := newSelector(t, scorer).Decide(ctx, &core.Query{Text: "What's the weather in London?", Concepts: weather})

		assert.Equal(t, core.ActionExternalDataIntent, out.Decision.Action)
		assert.Equal(t, RuleExternalData, out.Decision.Rule)
		assert.Equal(t, "London", out.Decision.Location)
		assert.InDelta(t, 0.904, out.Decision.Confidence, 1e-9)
		assert.Contains(t, out.Decision.Rationale, `"London"`)
		assert.Empty(t, out.Candidates)
		assert.Zero(t, scorer.calls)
	})

	t.Run("weather without location", func(t *testing.T) {
		out := newSelector(t, &fakeScorer{}).Decide(ctx, &core.Query{Text: "will the weather be nice", Concepts: weather[:1]})
		assert.NotEqual(t, core.ActionExternalDataIntent, out.Decision.Action)
	})

	t.Run("weak weather concept", func(t *testing.T) {
		q := &core.Query{Text: "What's the weather in London?", Concepts: []core.Concept{concept("weather", core.CategoryWeather, 0.2)}}
		out := newSelector(t, &fakeScorer{}).Decide(ctx, q)
		assert.NotEqual(t, core.ActionExternalDataIntent, out.Decision.Action)
	})

	t.Run("locator failure falls through", func(t *testing.T) {
		locator := mock.NewMockLocationExtractor()
		locator.ExtractLocationFunc = func(context.Context, string) (string, bool, error) {
			return "", false, errors.New("llm unavailable")
		}
		out := newSelector(t, &fakeScorer{}, WithLocator(locator)).Decide(ctx, &core.Query{Text: "What's the weather in London?", Concepts: weather})
		assert.Equal(t, RuleExhausted, out.Decision.Rule)
		assert.Equal(t, 1, locator.CallCount())
	})

	t.Run("custom locator", func(t *testing.T) {
		locator := mock.NewMockLocationExtractor()
		locator.ExtractLocationFunc = func(context.Context, string) (string, bool, error) {
			return "Greater London", true, nil
		}
		out := newSelector(t, &fakeScorer{}, WithLocator(locator)).Decide(ctx, &core.Query{Text: "What's the weather in London?", Concepts: weather})
		assert.Equal(t, "Greater London", out.Decision.Location)
	})
}

func TestDecide_Retrieval(t *testing.T) {
	ctx := context.Background()
	q := &core.Query{Text: "what are the work hours", Concepts: []core.Concept{concept("work", core.CategoryBusiness, 0.8)}}

	t.Run("concept retrieval", func(t *testing.T) {
		scorer := &fakeScorer{results: []core.RankedChunk{
			ranked("handbook-0", 0.9, 0.2, 1),
			ranked("handbook-1", 0, 0.1, 1),
			ranked("catalog-0", 0, 0, 0),
		}}
		out := newSelector(t, scorer).Decide(ctx, q)

		assert.Equal(t, core.ActionConceptRetrieval, out.Decision.Action)
		assert.Equal(t, RuleConceptRetrieval, out.Decision.Rule)
		assert.InDelta(t, (0.45+0.2)/0.7, out.Decision.Confidence, 1e-9)
		assert.Contains(t, out.Decision.Rationale, "handbook-0")
		require.Len(t, out.Candidates, 2, "candidates below the floor are dropped")
		assert.Equal(t, "handbook-0", out.Candidates[0].Chunk.Id)
		assert.Equal(t, 1, scorer.calls)
	})

	t.Run("top k", func(t *testing.T) {
		var results []core.RankedChunk
		for i := range 10 {
			results = append(results, ranked(fmt.Sprintf("doc-%d", i), 0.9, 0, 1))
		}
		out := newSelector(t, &fakeScorer{results: results}, WithTopK(3)).Decide(ctx, q)
		assert.Len(t, out.Candidates, 3)
	})

	t.Run("semantic fallback", func(t *testing.T) {
		scorer := &fakeScorer{results: []core.RankedChunk{
			ranked("faq-0", 0, 0.4, 0.5),
			ranked("faq-1", 0, 0.7, 0.5),
			ranked("faq-2", 0, 0.05, 0.5),
		}}
		out := newSelector(t, scorer).Decide(ctx, q)

		assert.Equal(t, core.ActionSemanticSearch, out.Decision.Action)
		assert.Equal(t, RuleSemanticFallback, out.Decision.Rule)
		assert.Equal(t, 0.7, out.Decision.Confidence)
		require.Len(t, out.Candidates, 2)
		assert.Equal(t, "faq-1", out.Candidates[0].Chunk.Id)
		assert.Equal(t, 1, scorer.calls, "candidates are scored once per decision")
	})

	t.Run("exhausted", func(t *testing.T) {
		scorer := &fakeScorer{results: []core.RankedChunk{ranked("faq-0", 0, 0.05, 0.5)}}
		out := newSelector(t, scorer).Decide(ctx, q)

		assert.Equal(t, core.ActionDirectResponse, out.Decision.Action)
		assert.Equal(t, RuleExhausted, out.Decision.Rule)
		assert.Contains(t, out.Decision.Rationale, NoMatchRationale)
		assert.Empty(t, out.Candidates)
	})

	t.Run("scorer failure", func(t *testing.T) {
		scorer := &fakeScorer{err: errors.New("index gone")}
		out := newSelector(t, scorer).Decide(ctx, q)

		assert.Equal(t, RuleExhausted, out.Decision.Rule)
		assert.Equal(t, 1, scorer.calls)
	})
}

func TestDecide_Totality(t *testing.T) {
	s := newSelector(t, &fakeScorer{})
	queries := []*core.Query{
		nil,
		{},
		{Text: "   "},
		{Text: "!!!"},
		{Text: strings.Repeat("word ", 200), Concepts: []core.Concept{concept("word", core.CategoryGeneral, 1)}},
	}
	for i, q := range queries {
		out := s.Decide(context.Background(), q)
		assert.NotZero(t, out.Decision.Action, "query %d", i)
		assert.NotEmpty(t, out.Decision.Rationale, "query %d", i)
		assert.NotEmpty(t, out.Decision.Rule, "query %d", i)
		assert.True(t, strings.HasPrefix(out.Decision.Rationale, "rule "+out.Decision.Rule), "query %d", i)
	}
}

// Scenarios run the full extractor, index and scorer.
func TestDecide_Scenarios(t *testing.T) {
	ctx := context.Background()
	e, err := extract.New()
	require.NoError(t, err)
	idx, err := index.New(e)
	require.NoError(t, err)

	require.NoError(t, idx.Insert(&core.Document{
		Id: "handbook", Text: "handbook", Category: core.CategoryBusiness,
		Chunks: []core.Chunk{
			{Id: "handbook-0", DocumentId: "handbook", Position: 0, Text: "Work Hours: Monday to Friday, 9:00 AM to 5:00 PM."},
			{Id: "handbook-1", DocumentId: "handbook", Position: 1, Text: "Vacation policy: employees accrue vacation days monthly."},
		},
	}))
	require.NoError(t, idx.Insert(&core.Document{
		Id: "catalog", Text: "catalog", Category: core.CategoryProduct,
		Chunks: []core.Chunk{
			{Id: "catalog-0", DocumentId: "catalog", Position: 0, Text: "The Model X laptop ships with a two year warranty."},
		},
	}))

	similarity := mock.NewMockSimilarity()
	scorer, err := search.NewScorer(idx, similarity)
	require.NoError(t, err)
	s := newSelector(t, scorer)

	query := func(text string) *core.Query {
		concepts, err := e.Extract(text, idx)
		if err != nil {
			require.ErrorIs(t, err, core.ErrExtractionDegraded)
		}
		return &core.Query{Text: text, Concepts: concepts}
	}

	t.Run("work hours retrieve the handbook", func(t *testing.T) {
		out := s.Decide(ctx, query("what are the work hours"))
		assert.Equal(t, core.ActionConceptRetrieval, out.Decision.Action, out.Decision.Rationale)
		require.NotEmpty(t, out.Candidates)
		assert.Equal(t, "handbook", out.Candidates[0].Chunk.DocumentId)
	})

	t.Run("hello is answered directly", func(t *testing.T) {
		out := s.Decide(ctx, query("Hello!"))
		assert.Equal(t, core.ActionDirectResponse, out.Decision.Action)
		assert.Equal(t, RuleGreeting, out.Decision.Rule)
	})

	t.Run("weather in london is external data", func(t *testing.T) {
		out := s.Decide(ctx, query("What's the weather in London?"))
		assert.Equal(t, core.ActionExternalDataIntent, out.Decision.Action)
		assert.Equal(t, "London", out.Decision.Location)
	})

	t.Run("unrelated query finds nothing", func(t *testing.T) {
		similarity.SemanticSimilarityFunc = func(context.Context, string, string) (float64, error) {
			return 0.05, nil
		}
		defer func() { similarity.SemanticSimilarityFunc = nil }()

		out := s.Decide(ctx, query("quantum chromodynamics lattice"))
		assert.Equal(t, core.ActionDirectResponse, out.Decision.Action)
		assert.Equal(t, RuleExhausted, out.Decision.Rule)
		assert.Contains(t, out.Decision.Rationale, NoMatchRationale)
	})
}
