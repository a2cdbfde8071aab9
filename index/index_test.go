package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/extract"
	"github.com/poiesic/conceptrag/taxonomy"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	e, err := extract.New()
	require.NoError(t, err)
	idx, err := New(e)
	require.NoError(t, err)
	return idx
}

func makeDoc(id string, category core.Category, texts ...string) *core.Document {
	doc := &core.Document{Id: id, Category: category}
	for i, text := range texts {
		doc.Text += text + " "
		doc.Chunks = append(doc.Chunks, core.Chunk{
			Id:         fmt.Sprintf("%s-%d", id, i),
			DocumentId: id,
			Position:   i,
			Text:       text,
		})
	}
	return doc
}

func handbook() *core.Document {
	return makeDoc("handbook", core.CategoryBusiness,
		"Work Hours: Monday to Friday, 9:00 AM to 5:00 PM.",
		"Vacation policy: employees accrue vacation days monthly.",
	)
}

func catalog() *core.Document {
	return makeDoc("catalog", core.CategoryProduct,
		"The Model X laptop ships with a two year warranty.",
		"Pricing: the base model price includes free shipping.",
	)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
}

func TestLookup_Unknown(t *testing.T) {
	idx := newIndex(t)
	postings := idx.Lookup("nothing")
	assert.NotNil(t, postings)
	assert.Empty(t, postings)
}

func TestInsert(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))

	t.Run("postings carry concept confidence", func(t *testing.T) {
		postings := idx.Lookup(taxonomy.Stem("work"))
		require.Len(t, postings, 1)
		p := postings[0]
		assert.Equal(t, "handbook", p.DocumentId)
		assert.Equal(t, "handbook-0", p.ChunkId)

		chunk, ok := idx.Chunk(p.ChunkId)
		require.True(t, ok)
		var found bool
		for _, c := range chunk.Concepts {
			if c.Label == "work" {
				found = true
				assert.Equal(t, c.Confidence, p.Weight)
			}
		}
		assert.True(t, found)
	})

	t.Run("every posting is backed by a chunk concept", func(t *testing.T) {
		for _, e := range idx.Entries() {
			for _, p := range e.Postings {
				chunk, ok := idx.Chunk(p.ChunkId)
				require.True(t, ok)
				labels := make([]string, 0, len(chunk.Concepts))
				for _, c := range chunk.Concepts {
					labels = append(labels, c.Label)
				}
				assert.Contains(t, labels, e.Label)
			}
		}
	})

	t.Run("entry category", func(t *testing.T) {
		cat, ok := idx.Category(taxonomy.Stem("vacation"))
		require.True(t, ok)
		assert.Equal(t, core.CategoryBusiness, cat)
		cat, ok = idx.Category(taxonomy.Stem("monday"))
		require.True(t, ok)
		assert.Equal(t, core.CategoryTime, cat)
	})

	t.Run("statistics", func(t *testing.T) {
		assert.Equal(t, 2, idx.DocumentCount())
		assert.Equal(t, 2, idx.DocumentFrequency(taxonomy.Stem("vacation"))+idx.DocumentFrequency(taxonomy.Stem("work")))
		assert.Equal(t, 0, idx.DocumentFrequency(taxonomy.Stem("warranty")))
	})

	t.Run("caller copy is not retained", func(t *testing.T) {
		doc := catalog()
		require.NoError(t, idx.Insert(doc))
		doc.Chunks[0].Text = "mutated"
		chunk, ok := idx.Chunk("catalog-0")
		require.True(t, ok)
		assert.NotEqual(t, "mutated", chunk.Text)
	})

	t.Run("sequence assigned in ingestion order", func(t *testing.T) {
		docs := idx.Documents()
		require.Len(t, docs, 2)
		assert.Equal(t, "handbook", docs[0].Id)
		assert.Equal(t, "catalog", docs[1].Id)
		assert.Less(t, docs[0].Sequence, docs[1].Sequence)
	})
}

func TestInsert_Invalid(t *testing.T) {
	idx := newIndex(t)
	assert.ErrorIs(t, idx.Insert(nil), ErrNilDocument)
	assert.ErrorIs(t, idx.Insert(&core.Document{Id: "x"}), core.ErrInvalidDocument)
	assert.Equal(t, 0, idx.Len())
}

func TestInsert_ChunkConflict(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))

	t.Run("chunk id owned by another document", func(t *testing.T) {
		intruder := makeDoc("intruder", core.CategoryNone, "Meeting rooms are booked through the office manager.")
		intruder.Chunks[0].Id = "handbook-0"

		err := idx.Insert(intruder)
		require.ErrorIs(t, err, ErrChunkConflict)

		_, ok := idx.Document("intruder")
		assert.False(t, ok)
		chunk, ok := idx.Chunk("handbook-0")
		require.True(t, ok)
		assert.Equal(t, "handbook", chunk.DocumentId)
		assert.NotEmpty(t, idx.Lookup(taxonomy.Stem("work")))
	})

	t.Run("chunk id repeated within a document", func(t *testing.T) {
		doc := makeDoc("faq", core.CategoryNone, "Warranty claims go to support.", "Support replies within a day.")
		doc.Chunks[1].Id = doc.Chunks[0].Id
		assert.ErrorIs(t, idx.Insert(doc), ErrChunkConflict)
	})

	t.Run("replacing a document keeps its own chunk ids", func(t *testing.T) {
		require.NoError(t, idx.Insert(handbook()))
	})

	t.Run("snapshot still round trips", func(t *testing.T) {
		data, err := idx.MarshalBinary()
		require.NoError(t, err)
		restored := newIndex(t)
		require.NoError(t, restored.UnmarshalBinary(data))
		assert.Equal(t, idx.Stats(), restored.Stats())
	})
}

func TestInsert_ReplacesWholesale(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))
	require.NoError(t, idx.Insert(catalog()))
	warrantyBefore := idx.Lookup(taxonomy.Stem("warranty"))

	replacement := makeDoc("handbook", core.CategoryBusiness, "Meeting rooms are booked through the office manager.")
	require.NoError(t, idx.Insert(replacement))

	assert.Empty(t, idx.Lookup(taxonomy.Stem("vacation")))
	assert.NotEmpty(t, idx.Lookup(taxonomy.Stem("meeting")))
	assert.Len(t, idx.DocumentChunks("handbook"), 1)
	assert.Equal(t, warrantyBefore, idx.Lookup(taxonomy.Stem("warranty")))
	assert.Equal(t, 3, idx.DocumentCount())
}

func TestInsert_Monotonic(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(catalog()))
	before := idx.Lookup(taxonomy.Stem("warranty"))

	require.NoError(t, idx.Insert(makeDoc("faq", core.CategoryNone, "Warranty claims are handled by support.")))
	after := idx.Lookup(taxonomy.Stem("warranty"))

	assert.Len(t, after, len(before)+1)
	for _, p := range before {
		assert.Contains(t, after, p)
	}
}

func TestRemove(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))
	require.NoError(t, idx.Insert(catalog()))

	assert.True(t, idx.Remove("handbook"))
	assert.False(t, idx.Remove("handbook"))
	assert.Empty(t, idx.Lookup(taxonomy.Stem("vacation")))
	assert.NotEmpty(t, idx.Lookup(taxonomy.Stem("warranty")))
	_, ok := idx.Document("handbook")
	assert.False(t, ok)
	assert.Equal(t, 2, idx.DocumentCount())
	assert.Equal(t, 0, idx.DocumentFrequency(taxonomy.Stem("vacation")))
}

func TestRebuild(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))
	require.NoError(t, idx.Insert(catalog()))

	rebuilt := newIndex(t)
	h, c := handbook(), catalog()
	h.Sequence, c.Sequence = 1, 2
	require.NoError(t, rebuilt.Rebuild([]*core.Document{c, h}))

	assert.Equal(t, idx.Stats(), rebuilt.Stats())
	docs := rebuilt.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "handbook", docs[0].Id)

	t.Run("invalid documents are reported and skipped", func(t *testing.T) {
		err := rebuilt.Rebuild([]*core.Document{handbook(), {Id: "broken"}})
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
		assert.Equal(t, 1, rebuilt.Stats().Documents)
	})

	t.Run("colliding chunk ids are reported and skipped", func(t *testing.T) {
		intruder := makeDoc("intruder", core.CategoryNone, "Meeting rooms are booked through the office manager.")
		intruder.Chunks[0].Id = "handbook-0"

		err := rebuilt.Rebuild([]*core.Document{handbook(), intruder})
		assert.ErrorIs(t, err, ErrChunkConflict)
		assert.Equal(t, 1, rebuilt.Stats().Documents)
		chunk, ok := rebuilt.Chunk("handbook-0")
		require.True(t, ok)
		assert.Equal(t, "handbook", chunk.DocumentId)
	})
}

func TestDocumentChunks(t *testing.T) {
	idx := newIndex(t)
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("Section %d of the employee policy manual.", i)
	}
	require.NoError(t, idx.Insert(makeDoc("manual", core.CategoryBusiness, texts...)))

	chunks := idx.DocumentChunks("manual")
	require.Len(t, chunks, 10)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
	}
	assert.Nil(t, idx.DocumentChunks("missing"))
	assert.Len(t, idx.Chunks(), 10)
}

func TestConcurrentReadsDuringInsert(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(catalog()))

	const docs = 20
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range docs {
			doc := makeDoc(fmt.Sprintf("doc-%d", i), core.CategoryBusiness,
				"Employees must follow the meeting policy.",
				"Project budget reviews happen quarterly.",
			)
			assert.NoError(t, idx.Insert(doc))
		}
	}()

	// A document's postings appear for all of its chunks at once.
	for range 200 {
		postings := idx.Lookup(taxonomy.Stem("policy"))
		perDoc := make(map[string]int)
		for _, p := range postings {
			perDoc[p.DocumentId]++
		}
		for docID, n := range perDoc {
			assert.Equal(t, 1, n, docID)
			assert.Len(t, idx.DocumentChunks(docID), 2)
		}
	}
	wg.Wait()
	assert.Len(t, idx.Lookup(taxonomy.Stem("policy")), docs)
}

func TestCategoryChunks(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))
	require.NoError(t, idx.Insert(catalog()))
	require.NoError(t, idx.Insert(makeDoc("notes", core.CategoryNone,
		"Monday to Friday, 9:00 AM to 5:00 PM",
		"The weather forecast promises rain.",
	)))

	ids := func(chunks []*core.Chunk) []string {
		out := make([]string, 0, len(chunks))
		for _, c := range chunks {
			out = append(out, c.Id)
		}
		return out
	}

	t.Run("hinted documents", func(t *testing.T) {
		assert.Equal(t, []string{"handbook-0", "handbook-1"}, ids(idx.CategoryChunks(core.CategoryBusiness, 0)))
		assert.Equal(t, []string{"catalog-0", "catalog-1"}, ids(idx.CategoryChunks(core.CategoryProduct, 0)))
	})

	t.Run("unhinted documents by dominant concept category", func(t *testing.T) {
		assert.Equal(t, []string{"notes-0"}, ids(idx.CategoryChunks(core.CategoryTime, 0)))
		assert.Equal(t, []string{"notes-1"}, ids(idx.CategoryChunks(core.CategoryWeather, 0)))
	})

	t.Run("limit", func(t *testing.T) {
		assert.Equal(t, []string{"handbook-0"}, ids(idx.CategoryChunks(core.CategoryBusiness, 1)))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, idx.CategoryChunks(core.CategoryHealthcare, 0))
	})
}
