package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/taxonomy"
)

func populated(t *testing.T) *Index {
	t.Helper()
	idx := newIndex(t)
	require.NoError(t, idx.Insert(handbook()))
	require.NoError(t, idx.Insert(catalog()))
	return idx
}

func TestRoundTrip(t *testing.T) {
	idx := populated(t)
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	loaded := newIndex(t)
	require.NoError(t, loaded.UnmarshalBinary(data))

	assert.Equal(t, idx.Entries(), loaded.Entries())
	assert.Equal(t, idx.Stats(), loaded.Stats())
	assert.Equal(t, idx.DocumentFrequency(taxonomy.Stem("warranty")), loaded.DocumentFrequency(taxonomy.Stem("warranty")))
	for _, word := range []string{"work", "warranty", "vacation", "unknown"} {
		label := taxonomy.Stem(word)
		assert.Equal(t, idx.Lookup(label), loaded.Lookup(label), label)
	}
	for i, d := range idx.Documents() {
		assert.Equal(t, d.Sequence, loaded.Documents()[i].Sequence)
	}

	again, err := loaded.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRoundTrip_Empty(t *testing.T) {
	data, err := newIndex(t).MarshalBinary()
	require.NoError(t, err)

	loaded := newIndex(t)
	require.NoError(t, loaded.UnmarshalBinary(data))
	assert.Equal(t, 0, loaded.Len())
}

func TestUnmarshal_Corruption(t *testing.T) {
	idx := populated(t)
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		data func() []byte
	}{
		{name: "too short", data: func() []byte { return data[:10] }},
		{name: "bad magic", data: func() []byte {
			bs := append([]byte(nil), data...)
			bs[0] = 'X'
			return bs
		}},
		{name: "flipped payload byte", data: func() []byte {
			bs := append([]byte(nil), data...)
			bs[len(bs)/2] ^= 0xff
			return bs
		}},
		{name: "posting without concept", data: func() []byte {
			entries := idx.Entries()
			entries[0].Postings[0].Weight += 0.01
			return encodeSnapshot(idx.Documents(), entries)
		}},
		{name: "posting to unknown chunk", data: func() []byte {
			entries := idx.Entries()
			entries[0].Postings[0].ChunkId = "ghost"
			return encodeSnapshot(idx.Documents(), entries)
		}},
		{name: "missing entry", data: func() []byte {
			entries := idx.Entries()
			return encodeSnapshot(idx.Documents(), entries[1:])
		}},
		{name: "wrong category", data: func() []byte {
			entries := idx.Entries()
			entries[0].Category = core.Category(99)
			return encodeSnapshot(idx.Documents(), entries)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := populated(t)
			before := target.Entries()

			err := target.UnmarshalBinary(tt.data())
			require.ErrorIs(t, err, core.ErrIndexCorruption)
			assert.Equal(t, before, target.Entries())
		})
	}
}
