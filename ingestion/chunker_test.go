package ingestion

import (
	"strings"
	"testing"

	"github.com/poiesic/conceptrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name               string
		size, overlap, min int
		wantErr            bool
	}{
		{"defaults", 500, 50, 100, false},
		{"zero overlap", 10, 0, 0, false},
		{"zero size", 0, 0, 0, true},
		{"overlap equals size", 10, 10, 0, true},
		{"negative overlap", 10, -1, 0, true},
		{"min above size", 10, 2, 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, tt.overlap, tt.min)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidChunking)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestChunker_Split(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, DefaultChunker().Split("  \n\t "))
	})

	t.Run("short text is one normalized chunk", func(t *testing.T) {
		pieces := DefaultChunker().Split("Work  Hours:\n Monday to Friday")
		assert.Equal(t, []string{"Work Hours: Monday to Friday"}, pieces)
	})

	t.Run("long text respects size and overlap", func(t *testing.T) {
		c, err := NewChunker(20, 5, 0)
		require.NoError(t, err)

		text := strings.Repeat("abcdefghij", 6) // 60 runes, no sentence breaks
		pieces := c.Split(text)
		require.Len(t, pieces, 4)
		for _, p := range pieces[:3] {
			assert.Len(t, []rune(p), 20)
		}
		// Consecutive pieces share the overlap.
		assert.Equal(t, pieces[0][15:], pieces[1][:5])
		assert.Equal(t, pieces[1][15:], pieces[2][:5])
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		c, err := NewChunker(30, 0, 0)
		require.NoError(t, err)

		pieces := c.Split("First sentence here. Second sentence is longer than that.")
		require.NotEmpty(t, pieces)
		assert.Equal(t, "First sentence here.", pieces[0])
	})

	t.Run("short tail merges into previous piece", func(t *testing.T) {
		c, err := NewChunker(20, 0, 10)
		require.NoError(t, err)

		text := strings.Repeat("x", 20) + "yyy"
		pieces := c.Split(text)
		require.Len(t, pieces, 1)
		assert.Equal(t, text, pieces[0])
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		c, err := NewChunker(4, 1, 0)
		require.NoError(t, err)

		for _, p := range c.Split("ééééééééé") {
			assert.True(t, strings.Trim(p, "é") == "", "piece %q contains broken runes", p)
		}
	})
}

func TestChunker_Chunk(t *testing.T) {
	c, err := NewChunker(20, 5, 0)
	require.NoError(t, err)

	doc := c.Chunk("handbook", strings.Repeat("abcdefghij", 6), core.CategoryBusiness)
	require.NoError(t, core.ValidateDocument(doc))
	assert.Equal(t, "handbook", doc.Id)
	assert.Equal(t, core.CategoryBusiness, doc.Category)
	for i, chunk := range doc.Chunks {
		assert.Equal(t, i, chunk.Position)
		assert.Equal(t, "handbook", chunk.DocumentId)
		assert.Equal(t, ChunkID("handbook", i), chunk.Id)
	}
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, ChunkID("doc", 1), ChunkID("doc", 1))
	assert.NotEqual(t, ChunkID("doc", 1), ChunkID("doc", 2))
	assert.NotEqual(t, ChunkID("doc", 1), ChunkID("doc1", 1))
	assert.Len(t, ChunkID("doc", 0), 36)
}
