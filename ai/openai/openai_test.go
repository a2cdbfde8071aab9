package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite clipped", []float32{1, 0}, []float32{-1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"common prefix", []float32{1, 0, 5}, []float32{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity(t *testing.T) {
	ctx := context.Background()

	t.Run("same text scores one", func(t *testing.T) {
		s := NewSimilarity(mock.NewMockEmbedder())
		score, err := s.SemanticSimilarity(ctx, "work hours", "work hours")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-6)
	})

	t.Run("embedder error propagates", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return nil, errors.New("unavailable")
		}
		_, err := NewSimilarity(embedder).SemanticSimilarity(ctx, "a", "b")
		assert.Error(t, err)
	})

	t.Run("short batch is an error", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		}
		_, err := NewSimilarity(embedder).SemanticSimilarity(ctx, "a", "b")
		assert.Error(t, err)
	})
}

func TestLimiter(t *testing.T) {
	t.Run("disabled without rate", func(t *testing.T) {
		l := newLimiter(ai.DefaultConfig())
		assert.Nil(t, l)
		assert.NoError(t, l.wait(context.Background()))
	})

	t.Run("honours cancellation", func(t *testing.T) {
		l := newLimiter(ai.NewConfig(ai.WithRateLimit(0.001, 1)))
		require.NotNil(t, l)
		require.NoError(t, l.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.Error(t, l.wait(ctx))
	})
}

func TestParseLocationAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"location":"London"}`, "London"},
		{"fenced", "```json\n{\"location\": \"New York\"}\n```", "New York"},
		{"missing opening quote", `{location":"Paris"}`, "Paris"},
		{"empty", `{"location":""}`, ""},
		{"unquoted key and trailing comma", "Sure: {location: \"Rome\",}", "Rome"},
		{"comma in value", `{"location":"Paris, France"}`, "Paris, France"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got locationAnswer
			require.NoError(t, parseLocationAnswer(tt.raw, &got))
			assert.Equal(t, tt.want, got.Location)
		})
	}

	var got locationAnswer
	assert.Error(t, parseLocationAnswer("not json", &got))
}

func TestScrubString(t *testing.T) {
	assert.Equal(t, "Whats the weather in Saint-Tropez", scrubString("  Whats the weather in Saint-Tropez?! "))
}
