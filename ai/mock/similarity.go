package mock

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"
)

// MockSimilarity is a test double for ai.Similarity.
type MockSimilarity struct {
	// SemanticSimilarityFunc is called by SemanticSimilarity if set.
	// If nil, returns the Jaccard overlap of the two word sets.
	SemanticSimilarityFunc func(ctx context.Context, a, b string) (float64, error)

	callCount atomic.Int64
}

// NewMockSimilarity creates a mock similarity service with default behavior.
func NewMockSimilarity() *MockSimilarity {
	return &MockSimilarity{}
}

// SemanticSimilarity scores a against b.
func (m *MockSimilarity) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	m.callCount.Add(1)

	if m.SemanticSimilarityFunc != nil {
		return m.SemanticSimilarityFunc(ctx, a, b)
	}
	return jaccard(wordSet(a), wordSet(b)), nil
}

// CallCount returns the number of times SemanticSimilarity was called.
func (m *MockSimilarity) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockSimilarity) Reset() {
	m.callCount.Store(0)
	m.SemanticSimilarityFunc = nil
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
