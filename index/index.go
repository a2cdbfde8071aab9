package index

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
)

// Index maps concept labels to postings. It is safe for concurrent use.
type Index struct {
	extractor *extract.Extractor
	logger    *slog.Logger

	mu      sync.Mutex // serializes writers
	current atomic.Pointer[snapshot]
}

var _ extract.CorpusStats = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// New creates an empty index that extracts chunk concepts with extractor.
func New(extractor *extract.Extractor, opts ...Option) (*Index, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	idx := &Index{
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "index")
	idx.current.Store(emptySnapshot())
	return idx, nil
}

// Extractor returns the extractor used for chunk concepts.
func (idx *Index) Extractor() *extract.Extractor { return idx.extractor }

// Insert extracts concepts for every chunk of doc and publishes its postings.
// A document with the same id is replaced wholesale. Postings of other
// documents are never touched. Extraction uses the statistics as they were
// before the insert.
//
// The index keeps its own copy of doc; chunk concepts are overwritten.
func (idx *Index) Insert(doc *core.Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.current.Load()
	if err := checkChunkOwnership(doc, cur.chunks); err != nil {
		return err
	}
	stored := idx.annotate(doc, cur)

	next := cur.clone()
	if old, ok := next.documents[doc.Id]; ok {
		next.removeTerms(old)
		next.removePostings(old)
	}
	next.addTerms(stored)
	next.addPostings(stored)
	idx.current.Store(next)

	idx.logger.Debug("document indexed", "document", doc.Id, "chunks", len(stored.Chunks), "labels", len(next.entries))
	return nil
}

// Remove drops a document and its postings. It reports whether the document existed.
func (idx *Index) Remove(documentID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.current.Load()
	old, ok := cur.documents[documentID]
	if !ok {
		return false
	}
	next := cur.clone()
	next.removeTerms(old)
	next.removePostings(old)
	idx.current.Store(next)
	return true
}

// Rebuild recomputes the whole index from docs and swaps it in at once.
// Statistics over all chunks are gathered before any extraction, so every
// chunk is weighted against the full corpus.
func (idx *Index) Rebuild(docs []*core.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var errs []error
	valid := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if err := core.ValidateDocument(doc); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, doc)
	}
	// Later duplicates replace earlier ones.
	seen := make(map[string]int, len(valid))
	deduped := valid[:0]
	for _, doc := range valid {
		if i, ok := seen[doc.Id]; ok {
			deduped[i] = doc
			continue
		}
		seen[doc.Id] = len(deduped)
		deduped = append(deduped, doc)
	}

	// A document whose chunk ids collide with an earlier one is skipped.
	owners := make(map[string]*core.Chunk)
	kept := deduped[:0]
	for _, doc := range deduped {
		if err := checkChunkOwnership(doc, owners); err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range doc.Chunks {
			owners[doc.Chunks[i].Id] = &doc.Chunks[i]
		}
		kept = append(kept, doc)
	}
	deduped = kept

	stats := emptySnapshot()
	for _, doc := range deduped {
		stats.addTerms(doc)
	}

	next := emptySnapshot()
	next.df, next.chunkCount = stats.df, stats.chunkCount
	annotated := make([]*core.Document, len(deduped))
	for i, doc := range deduped {
		annotated[i] = idx.annotate(doc, stats)
	}
	slices.SortStableFunc(annotated, func(a, b *core.Document) int {
		switch {
		case a.Sequence == 0 && b.Sequence == 0:
			return 0
		case a.Sequence == 0:
			return 1
		case b.Sequence == 0:
			return -1
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	for _, doc := range annotated {
		next.addPostings(doc)
	}

	idx.current.Store(next)

	idx.logger.Info("index rebuilt", "documents", len(annotated), "chunks", next.chunkCount, "labels", len(next.entries))
	return errors.Join(errs...)
}

// CheckChunks reports ErrChunkConflict when Insert would reject doc's chunk ids.
func (idx *Index) CheckChunks(doc *core.Document) error {
	return checkChunkOwnership(doc, idx.current.Load().chunks)
}

// checkChunkOwnership fails when a chunk id of doc repeats within doc or is
// owned by a different document in owners.
func checkChunkOwnership(doc *core.Document, owners map[string]*core.Chunk) error {
	seen := make(map[string]struct{}, len(doc.Chunks))
	for i := range doc.Chunks {
		id := doc.Chunks[i].Id
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: chunk %s repeats in document %q", ErrChunkConflict, id, doc.Id)
		}
		seen[id] = struct{}{}
		if owner, ok := owners[id]; ok && owner.DocumentId != doc.Id {
			return fmt.Errorf("%w: chunk %s of document %q is owned by %q", ErrChunkConflict, id, doc.Id, owner.DocumentId)
		}
	}
	return nil
}

// annotate copies doc and fills chunk concepts using stats.
func (idx *Index) annotate(doc *core.Document, stats extract.CorpusStats) *core.Document {
	stored := *doc
	stored.Chunks = make([]core.Chunk, len(doc.Chunks))
	for i, chunk := range doc.Chunks {
		concepts, err := idx.extractor.Extract(chunk.Text, stats)
		if err != nil {
			idx.logger.Debug("chunk has no concept evidence", "document", doc.Id, "chunk", chunk.Id, "err", err)
		}
		chunk.Concepts = concepts
		stored.Chunks[i] = chunk
	}
	return &stored
}

// Lookup returns the postings for label. Unknown labels yield an empty,
// non-nil slice; callers treat that as no evidence.
func (idx *Index) Lookup(label string) []core.Posting {
	e, ok := idx.current.Load().entries[label]
	if !ok {
		return []core.Posting{}
	}
	return slices.Clone(e.postings)
}

// Category returns the category of an indexed label.
func (idx *Index) Category(label string) (core.Category, bool) {
	e, ok := idx.current.Load().entries[label]
	if !ok {
		return core.CategoryNone, false
	}
	return e.category, true
}

// DocumentCount returns the number of indexed chunks.
func (idx *Index) DocumentCount() int { return idx.current.Load().chunkCount }

// DocumentFrequency returns the number of indexed chunks containing term.
func (idx *Index) DocumentFrequency(term string) int { return idx.current.Load().df[term] }

// Chunk returns an indexed chunk. The chunk must not be modified.
func (idx *Index) Chunk(id string) (*core.Chunk, bool) {
	c, ok := idx.current.Load().chunks[id]
	return c, ok
}

// Document returns an indexed document. The document must not be modified.
func (idx *Index) Document(id string) (*core.Document, bool) {
	d, ok := idx.current.Load().documents[id]
	return d, ok
}

// DocumentChunks returns the chunks of a document in position order.
func (idx *Index) DocumentChunks(documentID string) []*core.Chunk {
	d, ok := idx.current.Load().documents[documentID]
	if !ok {
		return nil
	}
	out := make([]*core.Chunk, len(d.Chunks))
	for i := range d.Chunks {
		out[i] = &d.Chunks[i]
	}
	return out
}

// Documents returns all indexed documents in ingestion order.
func (idx *Index) Documents() []*core.Document {
	return idx.current.Load().sortedDocuments()
}

func (s *snapshot) sortedDocuments() []*core.Document {
	out := make([]*core.Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *core.Document) int {
		if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
	return out
}

// Chunks returns every indexed chunk, grouped by document in ingestion order.
func (idx *Index) Chunks() []*core.Chunk {
	var out []*core.Chunk
	for _, d := range idx.Documents() {
		for i := range d.Chunks {
			out = append(out, &d.Chunks[i])
		}
	}
	return out
}

// CategoryChunks returns up to limit chunks, in ingestion order, whose
// document carries category c as its hint or, without a hint, whose own
// concepts are dominated by c. limit <= 0 means no limit.
func (idx *Index) CategoryChunks(c core.Category, limit int) []*core.Chunk {
	var out []*core.Chunk
	for _, d := range idx.Documents() {
		hinted := d.Category.Valid() && d.Category != core.CategoryGeneral
		if hinted && d.Category != c {
			continue
		}
		for i := range d.Chunks {
			chunk := &d.Chunks[i]
			if !hinted {
				if dom, ok := core.DominantCategory(chunk.Concepts); !ok || dom != c {
					continue
				}
			}
			out = append(out, chunk)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}

// Len returns the number of distinct labels.
func (idx *Index) Len() int { return len(idx.current.Load().entries) }

// Entries returns the index as persisted records, ordered by label.
func (idx *Index) Entries() []core.IndexEntry {
	return idx.current.Load().indexEntries()
}

// Stats summarizes the index.
type Stats struct {
	Documents int
	Chunks    int
	Labels    int
	Postings  int
}

// Stats returns counts over the current snapshot.
func (idx *Index) Stats() Stats {
	snap := idx.current.Load()
	st := Stats{
		Documents: len(snap.documents),
		Chunks:    snap.chunkCount,
		Labels:    len(snap.entries),
	}
	for _, e := range snap.entries {
		st.Postings += len(e.postings)
	}
	return st
}

func (s *snapshot) indexEntries() []core.IndexEntry {
	out := make([]core.IndexEntry, 0, len(s.entries))
	for label, e := range s.entries {
		out = append(out, core.IndexEntry{
			Label:    label,
			Category: e.category,
			Postings: slices.Clone(e.postings),
		})
	}
	slices.SortFunc(out, func(a, b core.IndexEntry) int { return cmp.Compare(a.Label, b.Label) })
	return out
}
