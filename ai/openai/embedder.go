package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/conceptrag/ai"
)

// maxEmbedBatch caps the number of chunk texts sent in one embedding request.
const maxEmbedBatch = 64

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	limiter  *limiter
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config, limit *limiter) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// "none" as token for local OpenAI-compatible services without authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(maxEmbedBatch),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		limiter:  limit,
		logger:   slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a standalone embedder with its own rate limiter.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, newLimiter(config))
}

// EmbedText embeds a query or a single chunk.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in request batches of at most maxEmbedBatch,
// waiting on the rate limiter before each request. The result has one vector
// per input, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts))

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		batch := texts[start:min(start+maxEmbedBatch, len(texts))]
		if err := e.limiter.wait(ctx); err != nil {
			return nil, err
		}
		vectors, err := e.embedder.EmbedDocuments(ctx, batch)
		if err != nil {
			e.logger.Error("failed to generate embeddings", "count", len(batch), "err", err)
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vectors), len(batch))
		}
		out = append(out, vectors...)
	}
	return out, nil
}
