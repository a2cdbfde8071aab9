package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/storage"
)

// embeddingProcessor generates embeddings for document chunks.
type embeddingProcessor struct {
	documentRepository storage.DocumentRepository
	vectorRepository   storage.VectorRepository
	embedder           ai.Embedder
	logger             *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(documents storage.DocumentRepository, vectors storage.VectorRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		documentRepository: documents,
		vectorRepository:   vectors,
		embedder:           embedder,
		logger:             logger.With("processor", "embeddings"),
	}, nil
}

// process replaces the chunk vectors of the specified documents.
// Failures are collected per document so one bad document does not block the rest.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	ep.logger.Info("processing documents for embeddings", "documents", len(ids))

	docs, err := ep.documentRepository.GetDocuments(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving documents", "err", err)
		return err
	}

	var errs []error
	for _, doc := range docs {
		if err := ep.embedDocument(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", doc.Id, err))
		}
	}
	return errors.Join(errs...)
}

func (ep *embeddingProcessor) embedDocument(ctx context.Context, doc *core.Document) error {
	texts := make([]string, len(doc.Chunks))
	for i := range doc.Chunks {
		texts[i] = doc.Chunks[i].Text
	}

	ep.logger.Debug("generating embeddings for chunks", "document", doc.Id, "chunks", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrExternalService, err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(embeddings))
	}

	vectors := make([]*core.ChunkVector, len(embeddings))
	for i, embedding := range embeddings {
		vectors[i] = &core.ChunkVector{
			DocumentId: doc.Id,
			ChunkId:    doc.Chunks[i].Id,
			Vector:     embedding,
		}
	}

	// A re-ingested document may have fewer chunks than before.
	if err := ep.vectorRepository.DeleteDocumentVectors(ctx, doc.Id); err != nil {
		return err
	}
	return ep.vectorRepository.SaveChunkVectors(ctx, vectors...)
}

// checkpoint is a no-op: vectors are durable once saved.
func (ep *embeddingProcessor) checkpoint(context.Context) error {
	return nil
}
