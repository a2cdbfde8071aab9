package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

// BatchProcessor embeds the chunks of a batch of documents.
type BatchProcessor struct {
	vectors        storage.VectorRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(vectors storage.VectorRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		vectors:        vectors,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds every chunk of docs in one call and replaces their vectors.
// Vectors are normalized after embedding. It returns the number of chunks written.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) (int, error) {
	var texts []string
	for _, doc := range docs {
		for i := range doc.Chunks {
			texts = append(texts, doc.Chunks[i].Text)
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding failed after %d attempts: %w", core.ErrExternalService, bp.maxRetries, err)
	}
	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	next := 0
	for _, doc := range docs {
		vectors := make([]*core.ChunkVector, len(doc.Chunks))
		for i := range doc.Chunks {
			vectors[i] = &core.ChunkVector{
				DocumentId: doc.Id,
				ChunkId:    doc.Chunks[i].Id,
				Vector:     NormalizeVector(embeddings[next]),
			}
			next++
		}
		if err := bp.vectors.DeleteDocumentVectors(ctx, doc.Id); err != nil {
			return 0, fmt.Errorf("failed to clear vectors of %s: %w", doc.Id, err)
		}
		if err := bp.vectors.SaveChunkVectors(ctx, vectors...); err != nil {
			return 0, fmt.Errorf("failed to save vectors of %s: %w", doc.Id, err)
		}
	}
	return len(texts), nil
}
