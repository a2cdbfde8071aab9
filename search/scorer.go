package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/poiesic/conceptrag/ai"
	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/index"
	"golang.org/x/sync/errgroup"
)

// Weights are the coefficients of the score formula.
type Weights struct {
	Overlap   float64 // α
	Semantic  float64 // β
	Coherence float64 // γ
}

// DefaultWeights returns α=0.5, β=0.3, γ=0.2.
func DefaultWeights() Weights {
	return Weights{Overlap: 0.5, Semantic: 0.3, Coherence: 0.2}
}

// Validate checks that all weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Overlap < 0 || w.Semantic < 0 || w.Coherence < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrInvalidWeights, w)
	}
	if sum := w.Overlap + w.Semantic + w.Coherence; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: sum is %f", ErrInvalidWeights, sum)
	}
	return nil
}

const (
	defaultMinRelevance      = 0.15
	defaultConcurrency       = 8
	defaultSimilarityTimeout = 5 * time.Second
	defaultScanLimit         = 512
	defaultCategoryLimit     = 256
	defaultNeighborK         = 20
)

// categoryEvidence scales Affinity when it stands in for label overlap, so
// category evidence alone ranks below a shared concept.
const categoryEvidence = 0.6

// relatedAffinity credits a chunk whose categories only relate to the
// query concept's category.
const relatedAffinity = 0.5

// Scorer ranks indexed chunks for a query. It holds no per-query state and
// is safe for concurrent use.
type Scorer struct {
	index        *index.Index
	similarity   ai.Similarity
	neighbors    NeighborSearcher
	weights      Weights
	minRelevance float64
	concurrency  int
	timeout      time.Duration
	scanLimit    int
	categoryMax  int
	neighborK    int
	monitor      ScoreMonitor
	logger       *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithWeights sets the score weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) error {
		if err := w.Validate(); err != nil {
			return err
		}
		s.weights = w
		return nil
	}
}

// WithMinRelevance sets the floor below which Rank drops candidates.
// Default is 0.15.
func WithMinRelevance(floor float64) Option {
	return func(s *Scorer) error {
		if floor < 0 || floor > 1 {
			return fmt.Errorf("%w: relevance floor %f", ErrInvalidOption, floor)
		}
		s.minRelevance = floor
		return nil
	}
}

// WithConcurrency bounds the number of parallel similarity calls.
// Default is 8.
func WithConcurrency(n int) Option {
	return func(s *Scorer) error {
		if n < 1 {
			return fmt.Errorf("%w: concurrency %d", ErrInvalidOption, n)
		}
		s.concurrency = n
		return nil
	}
}

// WithSimilarityTimeout bounds each similarity call.
// Default is 5s.
func WithSimilarityTimeout(d time.Duration) Option {
	return func(s *Scorer) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout %s", ErrInvalidOption, d)
		}
		s.timeout = d
		return nil
	}
}

// WithNeighborSearcher adds nearest-neighbour candidates, k per query.
func WithNeighborSearcher(n NeighborSearcher, k int) Option {
	return func(s *Scorer) error {
		if k < 1 {
			return fmt.Errorf("%w: neighbour count %d", ErrInvalidOption, k)
		}
		s.neighbors = n
		s.neighborK = k
		return nil
	}
}

// WithScanLimit sets the largest corpus, in chunks, that is scanned in full
// when no neighbour searcher is configured or it finds nothing. Zero
// disables scanning.
func WithScanLimit(n int) Option {
	return func(s *Scorer) error {
		if n < 0 {
			return fmt.Errorf("%w: scan limit %d", ErrInvalidOption, n)
		}
		s.scanLimit = n
		return nil
	}
}

// WithCategoryLimit caps the chunks added as candidates because their
// category matches the query's dominant category. Zero disables them.
func WithCategoryLimit(n int) Option {
	return func(s *Scorer) error {
		if n < 0 {
			return fmt.Errorf("%w: category limit %d", ErrInvalidOption, n)
		}
		s.categoryMax = n
		return nil
	}
}

// WithMonitor installs a monitor. nil restores the no-op monitor.
func WithMonitor(m ScoreMonitor) Option {
	return func(s *Scorer) error {
		if m == nil {
			m = &noopMonitor{}
		}
		s.monitor = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScorer creates a scorer over idx. similarity may be nil, in which case
// every semantic score is zero.
func NewScorer(idx *index.Index, similarity ai.Similarity, opts ...Option) (*Scorer, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	s := &Scorer{
		index:        idx,
		similarity:   similarity,
		weights:      DefaultWeights(),
		minRelevance: defaultMinRelevance,
		concurrency:  defaultConcurrency,
		timeout:      defaultSimilarityTimeout,
		scanLimit:    defaultScanLimit,
		categoryMax:  defaultCategoryLimit,
		neighborK:    defaultNeighborK,
		monitor:      &noopMonitor{},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scorer")

	return s, nil
}

// Weights returns the configured score weights.
func (s *Scorer) Weights() Weights { return s.weights }

// MinRelevance returns the relevance floor.
func (s *Scorer) MinRelevance() float64 { return s.minRelevance }

// ConceptScore is the concept-weighted sub-score of a candidate: the overlap
// and coherence terms renormalized by α+γ. Category affinity stands in for
// overlap when the chunk shares categories but no labels with the query.
func (s *Scorer) ConceptScore(rc core.RankedChunk) float64 {
	denom := s.weights.Overlap + s.weights.Coherence
	if denom == 0 {
		return 0
	}
	overlap := math.Max(rc.Overlap, categoryEvidence*rc.Affinity)
	return (s.weights.Overlap*overlap + s.weights.Coherence*rc.Coherence) / denom
}

// SemanticOnly is the semantic sub-score of a candidate.
func SemanticOnly(rc core.RankedChunk) float64 { return rc.Semantic }

// Score scores a single chunk against q.
func (s *Scorer) Score(ctx context.Context, q *core.Query, chunk *core.Chunk) core.RankedChunk {
	overlaps, _ := s.overlaps(q)
	qCat, qOK := core.DominantCategory(q.Concepts)
	rc, err := s.score(ctx, q, chunk, overlaps[chunk.Id], qCat, qOK)
	if err != nil {
		s.logger.Debug("semantic similarity unavailable", "chunk", chunk.Id, "err", err)
	}
	return rc
}

// Evaluate scores every candidate for q and returns them sorted by score,
// without applying the relevance floor. An empty index yields an empty result.
func (s *Scorer) Evaluate(ctx context.Context, q *core.Query) ([]core.RankedChunk, error) {
	s.monitor.Start(q)

	if s.index.DocumentCount() == 0 {
		s.logger.Debug("nothing to rank", "err", core.ErrIndexUnavailable)
		s.monitor.Finish(nil)
		return []core.RankedChunk{}, nil
	}

	overlaps, labels := s.overlaps(q)
	candidates := make([]*core.Chunk, 0, len(overlaps))
	seen := make(map[string]struct{}, len(overlaps))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		if chunk, ok := s.index.Chunk(id); ok {
			seen[id] = struct{}{}
			candidates = append(candidates, chunk)
		}
	}
	for _, label := range labels {
		for _, p := range s.index.Lookup(label) {
			add(p.ChunkId)
		}
	}
	qCat, qOK := core.DominantCategory(q.Concepts)
	if qOK && s.categoryMax > 0 {
		for _, chunk := range s.index.CategoryChunks(qCat, s.categoryMax) {
			add(chunk.Id)
		}
	}
	s.monitor.AfterConceptLookup(labels, len(candidates))

	scan := s.neighbors == nil
	if s.neighbors != nil {
		matches, err := s.neighbors.TopKSimilar(ctx, q.Text, s.neighborK)
		if err != nil {
			if !errors.Is(err, core.ErrExternalService) {
				err = fmt.Errorf("%w: neighbour search: %w", core.ErrExternalService, err)
			}
			s.logger.Warn("neighbour search failed", "err", err)
		}
		s.monitor.AfterNeighborSearch(matches, err)
		for _, m := range matches {
			add(m.ChunkId)
		}
		// Neighbours found nothing: fall back to the bounded scan.
		scan = len(matches) == 0
	}
	if scan && s.index.DocumentCount() <= s.scanLimit {
		for _, chunk := range s.index.Chunks() {
			add(chunk.Id)
		}
	}

	results := make([]core.RankedChunk, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, chunk := range candidates {
		g.Go(func() error {
			rc, err := s.score(ctx, q, chunk, overlaps[chunk.Id], qCat, qOK)
			if err != nil {
				s.logger.Debug("semantic similarity failed", "chunk", chunk.Id, "err", err)
				s.monitor.SimilarityFailed(chunk.Id, err)
			}
			s.monitor.CandidateScored(rc)
			results[i] = rc
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, compareRanked)
	s.monitor.Finish(results)
	return results, nil
}

// Rank returns up to k candidates scoring at or above the relevance floor,
// best first. k <= 0 returns all of them. An empty result means no
// sufficient match.
func (s *Scorer) Rank(ctx context.Context, q *core.Query, k int) ([]core.RankedChunk, error) {
	all, err := s.Evaluate(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.Filter(all, k), nil
}

// Filter applies the relevance floor and the k limit to evaluated candidates.
func (s *Scorer) Filter(evaluated []core.RankedChunk, k int) []core.RankedChunk {
	out := make([]core.RankedChunk, 0, len(evaluated))
	for _, rc := range evaluated {
		if rc.Score < s.minRelevance {
			continue
		}
		out = append(out, rc)
		if k > 0 && len(out) == k {
			break
		}
	}
	return out
}

// overlaps returns, per chunk id, the query-weighted posting sum divided by
// the total query weight, plus the distinct query labels in query order.
func (s *Scorer) overlaps(q *core.Query) (map[string]float64, []string) {
	out := make(map[string]float64)
	var total float64
	labels := make([]string, 0, len(q.Concepts))
	seen := make(map[string]struct{}, len(q.Concepts))
	for _, c := range q.Concepts {
		total += c.Weight
		if _, ok := seen[c.Label]; !ok {
			seen[c.Label] = struct{}{}
			labels = append(labels, c.Label)
		}
	}
	if total <= 0 {
		return out, labels
	}
	for _, c := range q.Concepts {
		for _, p := range s.index.Lookup(c.Label) {
			out[p.ChunkId] += c.Weight * p.Weight / total
		}
	}
	for id, v := range out {
		out[id] = clip01(v)
	}
	return out, labels
}

func (s *Scorer) score(ctx context.Context, q *core.Query, chunk *core.Chunk, overlap float64, qCat core.Category, qOK bool) (core.RankedChunk, error) {
	rc := core.RankedChunk{Chunk: chunk, Overlap: overlap}

	var docCat core.Category
	if doc, ok := s.index.Document(chunk.DocumentId); ok {
		rc.Sequence = doc.Sequence
		docCat = doc.Category
	}
	cCat, cOK := chunkCategory(chunk, docCat)
	rc.Coherence = coherence(qCat, qOK, cCat, cOK)
	rc.Affinity = s.affinity(q.Concepts, chunk.Concepts, cCat, cOK)

	var err error
	rc.Semantic, err = s.semantic(ctx, q.Text, chunk.Text)

	rc.Score = clip01(s.weights.Overlap*rc.Overlap + s.weights.Semantic*rc.Semantic + s.weights.Coherence*rc.Coherence)
	return rc, err
}

// affinity is the weight·confidence share of the query's domain concepts
// whose category the chunk carries, either as its document category or
// among its own concepts. Related categories earn partial credit.
func (s *Scorer) affinity(query, chunk []core.Concept, cCat core.Category, cOK bool) float64 {
	tax := s.index.Extractor().Taxonomy()
	var carried []core.Category
	if cOK {
		carried = append(carried, cCat)
	}
	for _, c := range chunk {
		if c.Category != core.CategoryGeneral && c.Category.Valid() && !slices.Contains(carried, c.Category) {
			carried = append(carried, c.Category)
		}
	}
	if len(carried) == 0 {
		return 0
	}

	var total, matched float64
	for _, c := range query {
		if c.Category == core.CategoryGeneral || !c.Category.Valid() {
			continue
		}
		w := c.Weight * c.Confidence
		total += w
		switch {
		case slices.Contains(carried, c.Category):
			matched += w
		case slices.ContainsFunc(carried, func(cat core.Category) bool { return tax.Related(c.Category, cat) }):
			matched += relatedAffinity * w
		}
	}
	if total <= 0 {
		return 0
	}
	return clip01(matched / total)
}

func (s *Scorer) semantic(ctx context.Context, query, text string) (float64, error) {
	if s.similarity == nil || query == "" {
		return 0, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := s.similarity.SemanticSimilarity(callCtx, query, text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrExternalService, err)
	}
	if math.IsNaN(v) {
		return 0, nil
	}
	return clip01(v), nil
}

// chunkCategory is the document's ingestion hint when present, otherwise the
// dominant category of the chunk's own concepts.
func chunkCategory(chunk *core.Chunk, hint core.Category) (core.Category, bool) {
	if hint.Valid() && hint != core.CategoryGeneral {
		return hint, true
	}
	return core.DominantCategory(chunk.Concepts)
}

func coherence(qCat core.Category, qOK bool, cCat core.Category, cOK bool) float64 {
	switch {
	case !qOK || !cOK:
		return 0.5
	case qCat == cCat:
		return 1
	default:
		return 0
	}
}

// compareRanked orders by score desc, then earlier document, lower position, chunk id.
func compareRanked(a, b core.RankedChunk) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Chunk.Position, b.Chunk.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.Chunk.Id, b.Chunk.Id)
}

func clip01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
