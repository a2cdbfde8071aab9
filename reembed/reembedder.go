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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents to embed in each call
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a completed job.
type Result struct {
	Documents int
	Chunks    int
	Elapsed   time.Duration
}

// Reembedder re-embeds every stored chunk with the configured embedder.
type Reembedder struct {
	documents storage.DocumentRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DocumentIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(documents storage.DocumentRepository, vectors storage.VectorRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if documents == nil || vectors == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		documents: documents,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(vectors, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewDocumentIterator(documents, config.BatchSize),
	}, nil
}

// Run executes the reembedding operation.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	docs, err := r.documents.GetAllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	totalChunks := 0
	for _, doc := range docs {
		totalChunks += len(doc.Chunks)
	}
	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (%d documents)\n", len(docs))
		return &Result{Documents: len(docs)}, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks in %d documents (batch size: %d)\n",
		totalChunks, len(docs), r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval, "chunks")
	tracker.Start()

	result := &Result{}
	err = r.iterator.ForEach(ctx, func(batch []*core.Document) error {
		written, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		result.Documents += len(batch)
		result.Chunks += written
		tracker.Increment(written)
		return nil
	})
	if err != nil {
		return result, err
	}

	tracker.Finish()
	result.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v\n",
		result.Chunks, result.Elapsed.Round(time.Millisecond))
	return result, nil
}
