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


package conceptrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/ai/openai"
	"github.com/poiesic/conceptrag/config"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
	"github.com/poiesic/conceptrag/index"
	"github.com/poiesic/conceptrag/ingestion"
	"github.com/poiesic/conceptrag/metrics"
	"github.com/poiesic/conceptrag/reconstruct"
	"github.com/poiesic/conceptrag/reembed"
	"github.com/poiesic/conceptrag/search"
	"github.com/poiesic/conceptrag/selector"
	"github.com/poiesic/conceptrag/storage"
	"github.com/poiesic/conceptrag/storage/badger"
)

// Engine answers queries against an ingested knowledge base.
// It is safe for concurrent use.
type Engine struct {
	cfg           *config.Config
	backend       *badger.Backend
	docRepo       storage.DocumentRepository
	vectorRepo    storage.VectorRepository
	indexRepo     storage.IndexRepository
	provider      ai.AIProvider
	extractor     *extract.Extractor
	index         *index.Index
	scorer        *search.Scorer
	selector      *selector.Selector
	reconstructor *reconstruct.Reconstructor
	pipeline      *ingestion.Pipeline
	metrics       *metrics.Metrics
	logger        *slog.Logger
	baseLogger    *slog.Logger // handed to components that add their own attributes
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config   *config.Config
	provider ai.AIProvider
	metrics  *metrics.Metrics
	logger   *slog.Logger
	inMemory bool
}

// WithConfig sets the engine configuration. Default is config.Default().
func WithConfig(cfg *config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithProvider sets the AI provider. Default is an OpenAI-compatible
// provider built from the configuration's AI section.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithMetrics records engine activity into m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(o *engineOptions) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithInMemory keeps all data in memory; path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the database at path, or the configured storage path when
// path is empty, and loads the concept index. A corrupt or missing index
// snapshot is rebuilt from the stored documents.
func NewEngine(path string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		path = cfg.Storage.Path
	}
	backend, err := badger.OpenBackend(path, options.inMemory || cfg.Storage.InMemory)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		backend:    backend,
		vectorRepo: badger.NewVectorRepository(backend),
		indexRepo:  badger.NewIndexRepository(backend),
		provider:   options.provider,
		metrics:    options.metrics,
		logger:     logger.With("component", "engine"),
		baseLogger: logger,
	}
	if err := e.init(logger); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(logger *slog.Logger) error {
	var err error
	cfg := e.cfg

	if e.docRepo, err = badger.NewDocumentRepository(e.backend); err != nil {
		return err
	}
	if e.provider == nil {
		if e.provider, err = openai.NewProvider(cfg.AIConfig()); err != nil {
			return err
		}
	}

	e.extractor, err = extract.New(
		extract.WithMinWeight(cfg.Extraction.MinWeight),
		extract.WithBlend(cfg.Extraction.Blend),
		extract.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if e.index, err = index.New(e.extractor, index.WithLogger(logger)); err != nil {
		return err
	}

	scorerOpts := []search.Option{
		search.WithWeights(cfg.SearchWeights()),
		search.WithMinRelevance(cfg.Retrieval.MinRelevance),
		search.WithConcurrency(cfg.Retrieval.Concurrency),
		search.WithSimilarityTimeout(cfg.Retrieval.SimilarityTimeout),
		search.WithScanLimit(cfg.Retrieval.ScanLimit),
		search.WithCategoryLimit(cfg.Retrieval.CategoryLimit),
		search.WithMonitor(metrics.NewScoreMonitor(e.metrics, logger)),
		search.WithLogger(logger),
	}
	if cfg.Retrieval.NeighborK > 0 {
		neighbors := search.NewVectorNeighbors(e.provider.Embedder(), e.vectorRepo, float32(cfg.Retrieval.NeighborMinScore))
		scorerOpts = append(scorerOpts, search.WithNeighborSearcher(neighbors, cfg.Retrieval.NeighborK))
	}
	if e.scorer, err = search.NewScorer(e.index, e.provider.Similarity(), scorerOpts...); err != nil {
		return err
	}

	selectorOpts := []selector.Option{
		selector.WithThresholds(cfg.Thresholds()),
		selector.WithTopK(cfg.Retrieval.TopK),
		selector.WithLogger(logger),
	}
	if cfg.Selector.LLMLocator {
		selectorOpts = append(selectorOpts, selector.WithLocator(e.provider.LocationExtractor()))
	}
	if e.selector, err = selector.New(e.scorer, selectorOpts...); err != nil {
		return err
	}

	var estimator reconstruct.TokenEstimator = reconstruct.CharEstimator
	if cfg.Context.Tokenizer == config.TokenizerTiktoken {
		if estimator, err = reconstruct.TiktokenEstimator(cfg.Context.Encoding); err != nil {
			return err
		}
	}
	e.reconstructor, err = reconstruct.New(e.index,
		reconstruct.WithEstimator(estimator),
		reconstruct.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	chunker, err := cfg.Chunker()
	if err != nil {
		return err
	}
	e.pipeline, err = ingestion.NewPipeline(e.docRepo, e.vectorRepo, e.indexRepo, e.index, e.provider,
		ingestion.WithPoolSize(cfg.Ingestion.PoolSize),
		ingestion.WithChunker(chunker),
		ingestion.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	return e.loadIndex(context.Background())
}

// loadIndex restores the index snapshot, rebuilding it from stored documents
// when the snapshot is corrupt or missing.
func (e *Engine) loadIndex(ctx context.Context) error {
	data, err := e.indexRepo.LoadIndex(ctx)
	if err != nil {
		return err
	}

	reason := metrics.RebuildMissing
	if data != nil {
		err := e.index.UnmarshalBinary(data)
		if err == nil {
			stats := e.index.Stats()
			e.logger.Info("index loaded", "documents", stats.Documents, "chunks", stats.Chunks, "labels", stats.Labels)
			return nil
		}
		e.logger.Warn("index snapshot rejected, rebuilding", "err", err)
		reason = metrics.RebuildCorruption
	} else {
		count, err := e.docRepo.CountDocuments(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		e.logger.Warn("index snapshot missing, rebuilding", "documents", count)
	}

	return e.rebuild(ctx, reason)
}

func (e *Engine) rebuild(ctx context.Context, reason string) error {
	rebuilder, err := e.NewRebuilder(nil)
	if err != nil {
		return err
	}
	e.metrics.IndexRebuilt(reason)
	if _, err := rebuilder.Run(ctx); err != nil {
		// Invalid documents are skipped; the rest of the index is usable.
		if errors.Is(err, core.ErrInvalidDocument) || errors.Is(err, index.ErrChunkConflict) {
			e.logger.Warn("documents skipped during rebuild", "err", err)
			return nil
		}
		return err
	}
	return nil
}

// Ingest stores text as documentID and indexes it. A document with the same
// id is replaced.
func (e *Engine) Ingest(ctx context.Context, documentID, text string) error {
	_, err := e.IngestDocument(ctx, documentID, text, nil)
	return err
}

// IngestDocument is Ingest with options. It returns the stored document.
func (e *Engine) IngestDocument(ctx context.Context, documentID, text string, opts *ingestion.IngestOptions) (*core.Document, error) {
	doc, err := e.pipeline.Ingest(ctx, documentID, text, opts)
	if err != nil {
		return nil, err
	}
	e.metrics.DocumentIngested(len(doc.Chunks))
	return doc, nil
}

// Remove deletes a document and its index entries.
func (e *Engine) Remove(ctx context.Context, documentID string) error {
	return e.pipeline.Remove(ctx, documentID)
}

// Wait blocks until background embedding and checkpoint jobs finish.
func (e *Engine) Wait() {
	e.pipeline.Wait()
}

// Query builds the per-request query for text: its concepts and type.
func (e *Engine) Query(text string) *core.Query {
	concepts, err := e.extractor.Extract(text, e.index)
	if err != nil {
		e.logger.Debug("query extraction degraded", "err", err)
	}
	return &core.Query{
		Text:     text,
		Concepts: concepts,
		Type:     selector.Classify(text, concepts),
	}
}

// Decide runs action selection for text without reconstruction or generation.
func (e *Engine) Decide(ctx context.Context, text string) (*core.Query, selector.Outcome) {
	q := e.Query(text)
	if e.index.DocumentCount() == 0 {
		e.logger.Debug("answering without context", "err", core.ErrIndexUnavailable)
	}
	out := e.selector.Decide(ctx, q)
	e.metrics.RecordDecision(out.Decision, q.Type)
	e.logger.Debug("action selected",
		"action", out.Decision.Action,
		"rule", out.Decision.Rule,
		"confidence", out.Decision.Confidence,
		"query_type", q.Type,
		"candidates", len(out.Candidates),
	)
	return q, out
}

// Answer decides how to handle queryText and, unless the decision is
// ExternalDataIntent, generates a response. Only generation failures are
// returned; they wrap core.ErrExternalService.
func (e *Engine) Answer(ctx context.Context, queryText string) (*core.Answer, error) {
	start := time.Now()
	q, out := e.Decide(ctx, queryText)
	answer := &core.Answer{Decision: out.Decision}

	if out.Decision.Action == core.ActionExternalDataIntent {
		e.metrics.ObserveAnswer(out.Decision.Action, time.Since(start))
		return answer, nil
	}

	var segments []reconstruct.Segment
	if out.Decision.Action.IsRetrieval() {
		segments = e.reconstructor.Reconstruct(out.Candidates, e.cfg.Context.Window, e.cfg.Context.TokenBudget)
		answer.Context = reconstruct.Texts(segments)
		answer.Sources = reconstruct.Sources(segments)
	}

	text, err := e.provider.Generator().Generate(ctx, BuildPrompt(q, segments))
	if err != nil {
		e.metrics.GenerationFailed()
		return nil, fmt.Errorf("%w: generation: %w", core.ErrExternalService, err)
	}
	answer.Text = text

	e.metrics.ObserveAnswer(out.Decision.Action, time.Since(start))
	return answer, nil
}

// Rebuild recomputes the concept index from stored documents and saves it.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.pipeline.Wait()
	return e.rebuild(ctx, metrics.RebuildManual)
}

// Stats describes the engine's stored and indexed content.
type Stats struct {
	index.Stats
	StoredDocuments int
	Vectors         int
	DiskBytes       int64
}

// Stats reports index and storage counts.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	docs, err := e.docRepo.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	vectors, err := e.vectorRepo.CountVectors(ctx)
	if err != nil {
		return nil, err
	}
	lsm, vlog := e.backend.Size()
	return &Stats{
		Stats:           e.index.Stats(),
		StoredDocuments: docs,
		Vectors:         vectors,
		DiskBytes:       lsm + vlog,
	}, nil
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.docRepo
}

func (e *Engine) VectorRepository() storage.VectorRepository {
	return e.vectorRepo
}

func (e *Engine) Index() *index.Index {
	return e.index
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// NewReembedder creates a job that re-embeds every stored chunk.
func (e *Engine) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.docRepo, e.vectorRepo, e.provider.Embedder(), cfg, progress)
}

// NewRebuilder creates a job that rebuilds the concept index into this engine.
func (e *Engine) NewRebuilder(progress io.Writer) (*reembed.Rebuilder, error) {
	opts := []reembed.RebuilderOption{reembed.WithLogger(e.baseLogger)}
	if e.pipeline != nil {
		opts = append(opts, reembed.WithWriteLock(e.pipeline.WriteLock()))
	}
	return reembed.NewRebuilder(e.docRepo, e.indexRepo, e.index, progress, opts...)
}

// Close drains background jobs, saves the index snapshot and releases storage.
func (e *Engine) Close() error {
	if e.pipeline != nil {
		e.pipeline.Release()
		if err := e.pipeline.Checkpoint(context.Background()); err != nil {
			e.logger.Error("error saving index snapshot", "err", err)
		}
		e.pipeline = nil
	}
	return e.close()
}

func (e *Engine) close() error {
	if e.pipeline != nil {
		e.pipeline.Release()
	}

	// Close AI provider first
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}

	if e.docRepo != nil {
		if err := e.docRepo.Close(); err != nil {
			e.logger.Error("error closing document repository", "err", err)
			return err
		}
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
