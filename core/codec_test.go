package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUS(t *testing.T) {
	doc := Document{
		Id:         "handbook",
		Text:       "Work hours: Monday to Friday, 9:00 AM to 5:00 PM.",
		Category:   CategoryBusiness,
		Sequence:   7,
		InsertedAt: time.Date(2025, 3, 14, 9, 26, 53, 589000, time.UTC),
		Chunks: []Chunk{{
			Id:         "c0",
			DocumentId: "handbook",
			Position:   0,
			Text:       "Work hours: Monday to Friday, 9:00 AM to 5:00 PM.",
			Concepts: []Concept{
				{Label: "work", Category: CategoryBusiness, Confidence: 0.92, Weight: 1.5},
				{Label: "hour", Category: CategoryTime, Confidence: 0.61, Weight: 0.33},
			},
		}},
	}

	bs := make([]byte, DocumentMUS.Size(doc))
	n := DocumentMUS.Marshal(doc, bs)
	require.Equal(t, len(bs), n)

	got, read, err := DocumentMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, doc, got)
}

func TestIndexEntryMUS(t *testing.T) {
	entry := IndexEntry{
		Label:    "weather",
		Category: CategoryWeather,
		Postings: []Posting{
			{DocumentId: "faq", ChunkId: "a", Weight: 0.8},
			{DocumentId: "faq", ChunkId: "b", Weight: 0.55},
		},
	}
	bs := make([]byte, IndexEntryMUS.Size(entry))
	IndexEntryMUS.Marshal(entry, bs)

	got, _, err := IndexEntryMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestChunkVectorMUS(t *testing.T) {
	vec := ChunkVector{DocumentId: "d", ChunkId: "c", Vector: []float32{0.25, -1, 3.5e-7}}
	bs := make([]byte, ChunkVectorMUS.Size(vec))
	ChunkVectorMUS.Marshal(vec, bs)

	got, _, err := ChunkVectorMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestUnmarshalTruncated(t *testing.T) {
	c := Concept{Label: "temperature", Category: CategoryWeather, Confidence: 1, Weight: 2}
	bs := make([]byte, ConceptMUS.Size(c))
	ConceptMUS.Marshal(c, bs)

	_, _, err := ConceptMUS.Unmarshal(bs[:len(bs)-3])
	assert.Error(t, err)
}

func TestUnmarshalImpossibleLength(t *testing.T) {
	// An entry claiming far more postings than there are bytes left.
	entry := IndexEntry{Label: "x", Category: CategoryGeneral}
	bs := make([]byte, IndexEntryMUS.Size(entry))
	IndexEntryMUS.Marshal(entry, bs)
	bs[len(bs)-1] = 0x7f

	_, _, err := IndexEntryMUS.Unmarshal(bs)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
