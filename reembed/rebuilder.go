package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/index"
	"github.com/poiesic/conceptrag/storage"
)

// Rebuilder recomputes the concept index from stored documents and saves the snapshot.
type Rebuilder struct {
	documents storage.DocumentRepository
	indexes   storage.IndexRepository
	index     *index.Index
	iterator  *DocumentIterator
	progress  io.Writer
	writeLock sync.Locker
	logger    *slog.Logger
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RebuilderOption {
	return func(r *Rebuilder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithWriteLock sets the lock shared with ingestion. It is held from the
// first document read until the rebuilt index is swapped in, so documents
// ingested meanwhile are neither lost nor half indexed.
// Default is a lock private to the rebuilder.
func WithWriteLock(lock sync.Locker) RebuilderOption {
	return func(r *Rebuilder) error {
		if lock == nil {
			lock = &sync.Mutex{}
		}
		r.writeLock = lock
		return nil
	}
}

// NewRebuilder creates a new index rebuilder.
// progress: where to write progress output (typically os.Stderr)
func NewRebuilder(documents storage.DocumentRepository, indexes storage.IndexRepository, idx *index.Index, progress io.Writer, opts ...RebuilderOption) (*Rebuilder, error) {
	if documents == nil || indexes == nil {
		return nil, ErrRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if progress == nil {
		progress = io.Discard
	}
	r := &Rebuilder{
		documents: documents,
		indexes:   indexes,
		index:     idx,
		iterator:  NewDocumentIterator(documents, DefaultBatchSize),
		progress:  progress,
		writeLock: &sync.Mutex{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "rebuilder")
	return r, nil
}

// Run rebuilds the index. Documents that fail validation are skipped and
// reported in the returned error; the rebuilt index is saved regardless.
func (r *Rebuilder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r.writeLock.Lock()
	data, rebuildErr, err := r.rebuild(ctx)
	r.writeLock.Unlock()
	if err != nil {
		return nil, err
	}
	if rebuildErr != nil {
		r.logger.Warn("documents skipped during rebuild", "err", rebuildErr)
	}

	if err := r.indexes.SaveIndex(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	stats := r.index.Stats()
	result := &Result{Documents: stats.Documents, Chunks: stats.Chunks, Elapsed: time.Since(start)}
	fmt.Fprintf(r.progress, "Index rebuilt: %d documents, %d chunks, %d labels in %v\n",
		stats.Documents, stats.Chunks, stats.Labels, result.Elapsed.Round(time.Millisecond))
	return result, rebuildErr
}

// rebuild reads every stored document, swaps the rebuilt index in and
// encodes it. The caller holds the write lock.
func (r *Rebuilder) rebuild(ctx context.Context) (data []byte, rebuildErr, err error) {
	total, err := r.documents.CountDocuments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count documents: %w", err)
	}

	tracker := NewProgressTracker(r.progress, total, DefaultBatchSize, "documents")
	tracker.Start()

	docs := make([]*core.Document, 0, total)
	err = r.iterator.ForEach(ctx, func(batch []*core.Document) error {
		docs = append(docs, batch...)
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	rebuildErr = r.index.Rebuild(docs)
	tracker.Finish()

	data, err = r.index.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return data, rebuildErr, nil
}
