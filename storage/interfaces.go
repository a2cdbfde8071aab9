// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"context"

	"github.com/poiesic/conceptrag/core"
)

// Repository is the base interface for all repository types.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository stores ingested documents.
type DocumentRepository interface {
	Repository

	// AddDocuments stores documents, replacing any document with the same id.
	// Every stored document gets a fresh ingestion Sequence and InsertedAt.
	// Returns the documents with Sequence and InsertedAt populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by id.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// GetAllDocuments returns every document in ingestion order.
	GetAllDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocuments removes documents by id.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...string) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// VectorRepository stores chunk embeddings.
type VectorRepository interface {
	Repository

	// SaveChunkVectors stores or replaces chunk vectors.
	SaveChunkVectors(ctx context.Context, vectors ...*core.ChunkVector) error

	// GetChunkVector retrieves the vector of a chunk.
	// Returns ErrNotFound if the chunk has no vector.
	GetChunkVector(ctx context.Context, documentID, chunkID string) (*core.ChunkVector, error)

	// FindSimilar finds chunks whose vectors are similar to the given vector.
	// Returns matches with cosine similarity >= minSimilarity, up to limit results,
	// ordered by similarity (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.SimilarityMatch, error)

	// DeleteDocumentVectors removes every vector of a document.
	DeleteDocumentVectors(ctx context.Context, documentID string) error

	// CountVectors returns the number of stored vectors.
	CountVectors(ctx context.Context) (int, error)
}

// IndexRepository persists concept index snapshots.
type IndexRepository interface {
	// SaveIndex replaces the stored snapshot.
	SaveIndex(ctx context.Context, data []byte) error

	// LoadIndex returns the stored snapshot.
	// Returns nil, nil if no snapshot exists.
	LoadIndex(ctx context.Context) ([]byte, error)
}
