package badger

import (
	"context"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Similarity search is a full scan over stored vectors.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) *VectorRepository {
	return &VectorRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *VectorRepository) Close() error { return nil }

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveChunkVectors stores or replaces chunk vectors.
func (r *VectorRepository) SaveChunkVectors(ctx context.Context, vectors ...*core.ChunkVector) error {
	for _, v := range vectors {
		if len(v.Vector) == 0 {
			return storage.ErrEmptyVector
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, v := range vectors {
			if err := tx.Set(makeVectorKey(v.DocumentId, v.ChunkId), storage.MarshalChunkVector(v)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunkVector retrieves the vector of a chunk.
func (r *VectorRepository) GetChunkVector(ctx context.Context, documentID, chunkID string) (*core.ChunkVector, error) {
	var result *core.ChunkVector
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(documentID, chunkID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalChunkVector(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// FindSimilar finds chunks similar to the given vector.
func (r *VectorRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrEmptyVector
	}
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.SimilarityMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var stored *core.ChunkVector
			err := iter.Item().Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalChunkVector(val)
				return err
			})
			if err != nil {
				return err
			}

			similarity := cosineSimilarity(vector, stored.Vector)
			if similarity >= minSimilarity {
				results = append(results, core.SimilarityMatch{
					DocumentId: stored.DocumentId,
					ChunkId:    stored.ChunkId,
					Score:      float64(similarity),
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteDocumentVectors removes every vector of a document.
func (r *VectorRepository) DeleteDocumentVectors(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentVectorPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountVectors returns the number of stored vectors.
func (r *VectorRepository) CountVectors(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// cosineSimilarity returns the cosine of the angle between a and b over
// their common prefix. Zero vectors have similarity 0.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
