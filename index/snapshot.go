package index

import (
	"maps"
	"slices"
	"strings"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
)

type entry struct {
	category core.Category
	postings []core.Posting // Sorted by document id, then chunk id
}

// snapshot is an immutable view of the index once published.
type snapshot struct {
	entries    map[string]*entry
	documents  map[string]*core.Document
	chunks     map[string]*core.Chunk
	df         map[string]int
	chunkCount int
	nextSeq    uint64
}

func emptySnapshot() *snapshot {
	return &snapshot{
		entries:   make(map[string]*entry),
		documents: make(map[string]*core.Document),
		chunks:    make(map[string]*core.Chunk),
		df:        make(map[string]int),
		nextSeq:   1,
	}
}

func (s *snapshot) clone() *snapshot {
	return &snapshot{
		entries:    maps.Clone(s.entries),
		documents:  maps.Clone(s.documents),
		chunks:     maps.Clone(s.chunks),
		df:         maps.Clone(s.df),
		chunkCount: s.chunkCount,
		nextSeq:    s.nextSeq,
	}
}

func (s *snapshot) DocumentCount() int { return s.chunkCount }

func (s *snapshot) DocumentFrequency(term string) int { return s.df[term] }

func (s *snapshot) addTerms(doc *core.Document) {
	for i := range doc.Chunks {
		for _, term := range extract.Terms(doc.Chunks[i].Text) {
			s.df[term]++
		}
		s.chunkCount++
	}
}

func (s *snapshot) removeTerms(doc *core.Document) {
	for i := range doc.Chunks {
		for _, term := range extract.Terms(doc.Chunks[i].Text) {
			if s.df[term] <= 1 {
				delete(s.df, term)
			} else {
				s.df[term]--
			}
		}
		s.chunkCount--
	}
}

// addPostings registers doc and the postings of its chunk concepts.
func (s *snapshot) addPostings(doc *core.Document) {
	if doc.Sequence == 0 {
		doc.Sequence = s.nextSeq
	}
	s.nextSeq = max(s.nextSeq, doc.Sequence+1)
	s.documents[doc.Id] = doc

	touched := make(map[string]struct{})
	additions := make(map[string][]core.Posting)
	for i := range doc.Chunks {
		chunk := &doc.Chunks[i]
		s.chunks[chunk.Id] = chunk
		for _, c := range chunk.Concepts {
			additions[c.Label] = append(additions[c.Label], core.Posting{
				DocumentId: doc.Id,
				ChunkId:    chunk.Id,
				Weight:     c.Confidence,
			})
			touched[c.Label] = struct{}{}
		}
	}
	for label, ps := range additions {
		var postings []core.Posting
		if old, ok := s.entries[label]; ok {
			postings = slices.Clone(old.postings)
		}
		postings = append(postings, ps...)
		s.entries[label] = &entry{postings: postings}
	}
	s.finish(touched)
}

// removePostings drops doc and every posting that references it.
func (s *snapshot) removePostings(doc *core.Document) {
	delete(s.documents, doc.Id)
	touched := make(map[string]struct{})
	for i := range doc.Chunks {
		chunk := &doc.Chunks[i]
		delete(s.chunks, chunk.Id)
		for _, c := range chunk.Concepts {
			touched[c.Label] = struct{}{}
		}
	}
	for label := range touched {
		old, ok := s.entries[label]
		if !ok {
			continue
		}
		postings := slices.DeleteFunc(slices.Clone(old.postings), func(p core.Posting) bool {
			return p.DocumentId == doc.Id
		})
		if len(postings) == 0 {
			delete(s.entries, label)
			delete(touched, label)
			continue
		}
		s.entries[label] = &entry{postings: postings}
	}
	s.finish(touched)
}

// finish sorts the postings of touched labels and recomputes their category.
func (s *snapshot) finish(touched map[string]struct{}) {
	for label := range touched {
		e, ok := s.entries[label]
		if !ok {
			continue
		}
		slices.SortFunc(e.postings, comparePostings)
		e.category = s.entryCategory(label, e.postings)
	}
}

// entryCategory is the category with the highest cumulative posting weight.
// Ties go to the lower category.
func (s *snapshot) entryCategory(label string, postings []core.Posting) core.Category {
	totals := make(map[core.Category]float64)
	for _, p := range postings {
		chunk, ok := s.chunks[p.ChunkId]
		if !ok {
			continue
		}
		for _, c := range chunk.Concepts {
			if c.Label == label && c.Category.Valid() {
				totals[c.Category] += p.Weight
				break
			}
		}
	}
	best := core.CategoryGeneral
	found := false
	for _, cat := range core.Categories() {
		if _, ok := totals[cat]; !ok {
			continue
		}
		if !found || totals[cat] > totals[best] {
			best, found = cat, true
		}
	}
	return best
}

func comparePostings(a, b core.Posting) int {
	if c := strings.Compare(a.DocumentId, b.DocumentId); c != 0 {
		return c
	}
	return strings.Compare(a.ChunkId, b.ChunkId)
}
