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


package reembed

import (
	"context"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

const (
	// DefaultBatchSize is the default number of documents in each batch
	DefaultBatchSize = 16
)

// DocumentIterator walks stored documents in ingestion order, in batches.
type DocumentIterator struct {
	repo      storage.DocumentRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// A non-positive batchSize selects DefaultBatchSize.
func NewDocumentIterator(repo storage.DocumentRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DocumentIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of documents.
// Iteration stops on the first error from fn or when the context is done.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := it.repo.GetAllDocuments(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(docs); i += it.batchSize {
		end := min(i+it.batchSize, len(docs))
		if err := fn(docs[i:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
