package search

import (
	"context"
	"fmt"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

// NeighborSearcher returns the chunks nearest to a query in embedding space.
type NeighborSearcher interface {
	TopKSimilar(ctx context.Context, query string, k int) ([]core.SimilarityMatch, error)
}

// VectorNeighbors answers TopKSimilar from stored chunk vectors.
type VectorNeighbors struct {
	embedder ai.Embedder
	vectors  storage.VectorRepository
	minScore float32
}

var _ NeighborSearcher = (*VectorNeighbors)(nil)

// NewVectorNeighbors creates a neighbour searcher over vectors.
// Matches below minScore are discarded by the repository.
func NewVectorNeighbors(embedder ai.Embedder, vectors storage.VectorRepository, minScore float32) *VectorNeighbors {
	return &VectorNeighbors{embedder: embedder, vectors: vectors, minScore: minScore}
}

// TopKSimilar embeds query and returns up to k stored chunks by cosine similarity.
func (v *VectorNeighbors) TopKSimilar(ctx context.Context, query string, k int) ([]core.SimilarityMatch, error) {
	embedding, err := v.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", core.ErrExternalService, err)
	}
	if len(embedding) == 0 {
		return nil, nil
	}
	return v.vectors.FindSimilar(ctx, embedding, v.minScore, k)
}
