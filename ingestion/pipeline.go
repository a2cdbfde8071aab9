package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/index"
	"github.com/poiesic/conceptrag/storage"
)

// Pipeline orchestrates the ingestion and processing of documents.
// Indexing happens inline; embeddings and index checkpoints run on worker pools.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	vectorRepository   storage.VectorRepository
	index              *index.Index
	chunker            *Chunker
	embeddingPool      *ants.Pool
	checkpointPool     *ants.Pool
	embeddingProc      processor
	indexProc          processor
	pending            sync.WaitGroup
	writeMu            sync.Mutex // serializes storage writes with index updates
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithChunker sets the chunker used to split document text.
// Default is DefaultChunker().
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			chunker = DefaultChunker()
		}
		p.chunker = chunker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	vectors storage.VectorRepository,
	indexes storage.IndexRepository,
	idx *index.Index,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if indexes == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Snapshots are written one at a time.
	checkpointPool, err := ants.NewPool(1)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	p := &Pipeline{
		documentRepository: documents,
		vectorRepository:   vectors,
		index:              idx,
		chunker:            DefaultChunker(),
		embeddingPool:      embeddingPool,
		checkpointPool:     checkpointPool,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Create processors after options are applied (so they get final config)
	embeddingProc, err := newEmbeddingProcessor(documents, vectors, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	indexProc, err := newIndexProcessor(indexes, idx, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.embeddingProc = embeddingProc
	p.indexProc = indexProc
	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Category core.Category // Optional category hint, CategoryNone when absent
}

// Ingest chunks text, stores it as documentID and indexes its concepts.
// A document with the same id is replaced. Once Ingest returns, the document
// is visible to index lookups; its chunk embeddings and the index snapshot
// are produced asynchronously. Errors during async processing are logged
// but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, documentID, text string, opts *IngestOptions) (*core.Document, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	doc := p.chunker.Chunk(documentID, text, opts.Category)
	if len(doc.Chunks) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoContent, documentID)
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	p.writeMu.Lock()
	stored, err := p.store(ctx, doc)
	p.writeMu.Unlock()
	if err != nil {
		return nil, err
	}
	p.logger.Info("document ingested", "document", stored.Id, "chunks", len(stored.Chunks), "sequence", stored.Sequence)

	p.submit(p.embeddingPool, "embeddings", p.embeddingProc, stored.Id)
	p.submit(p.checkpointPool, "index", p.indexProc, stored.Id)
	return stored, nil
}

// store persists doc and publishes it to the index. The caller holds writeMu.
func (p *Pipeline) store(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := p.index.CheckChunks(doc); err != nil {
		return nil, err
	}
	added, err := p.documentRepository.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}
	stored := added[0]
	if err := p.index.Insert(stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Remove deletes a document from storage, the index and the vector store.
func (p *Pipeline) Remove(ctx context.Context, documentID string) error {
	p.writeMu.Lock()
	err := p.documentRepository.DeleteDocuments(ctx, documentID)
	if err == nil {
		p.index.Remove(documentID)
	}
	p.writeMu.Unlock()
	if err != nil {
		return err
	}
	if err := p.vectorRepository.DeleteDocumentVectors(ctx, documentID); err != nil {
		return err
	}
	p.submit(p.checkpointPool, "index", p.indexProc, documentID)
	return nil
}

// WriteLock returns the lock held while a document is stored and indexed.
// Jobs that rebuild the index from storage hold it across the read and the swap.
func (p *Pipeline) WriteLock() sync.Locker {
	return &p.writeMu
}

// Checkpoint writes the index snapshot synchronously.
func (p *Pipeline) Checkpoint(ctx context.Context) error {
	return p.indexProc.checkpoint(ctx)
}

func (p *Pipeline) submit(pool *ants.Pool, name string, proc processor, ids ...string) {
	p.pending.Add(1)
	err := pool.Submit(func() {
		defer p.pending.Done()
		ctx := context.Background()
		if err := proc.process(ctx, ids...); err != nil {
			p.logger.Error("error processing documents", "processor", name, "err", err)
			return
		}
		if err := proc.checkpoint(ctx); err != nil {
			p.logger.Error("error applying checkpoint", "processor", name, "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			p.logger.Warn("pipeline released, dropping job", "processor", name)
			return
		}
		p.logger.Error("error submitting job", "processor", name, "err", err)
	}
}

// Wait blocks until every submitted job has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for submitted jobs and releases the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
	if p.checkpointPool != nil {
		p.checkpointPool.Release()
	}
}
