package openai

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/conceptrag/ai"
)

// Similarity implements ai.Similarity as the cosine of two embeddings.
type Similarity struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewSimilarity builds a similarity service on top of an embedder.
func NewSimilarity(embedder ai.Embedder) ai.Similarity {
	return newSimilarity(embedder)
}

func newSimilarity(embedder ai.Embedder) *Similarity {
	return &Similarity{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-similarity"),
	}
}

// SemanticSimilarity embeds both texts in one batch and returns their cosine
// similarity clipped to [0,1].
func (s *Similarity) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
	}
	score := Cosine(vectors[0], vectors[1])
	s.logger.Debug("semantic similarity", "score", score)
	return score, nil
}

// Cosine returns the cosine similarity of a and b over their common prefix,
// clipped to [0,1]. Zero vectors score 0.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, dot/(math.Sqrt(normA)*math.Sqrt(normB))))
}
