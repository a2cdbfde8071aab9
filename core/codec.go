package core

import (
	"errors"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ErrMalformedRecord is returned when an encoded record has an impossible shape.
var ErrMalformedRecord = errors.New("malformed record")

// Binary serializers for persisted domain types, built on mus-go primitives.
// Each serializer exposes Size, Marshal and Unmarshal with mus-go semantics:
// Marshal writes into a buffer of at least Size bytes and returns the bytes written.
var (
	CategoryMUS    = categoryMUS{}
	ConceptMUS     = conceptMUS{}
	PostingMUS     = postingMUS{}
	IndexEntryMUS  = indexEntryMUS{}
	ChunkMUS       = chunkMUS{}
	DocumentMUS    = documentMUS{}
	ChunkVectorMUS = chunkVectorMUS{}
)

type categoryMUS struct{}

func (categoryMUS) Size(v Category) int { return varint.Int.Size(int(v)) }

func (categoryMUS) Marshal(v Category, bs []byte) int { return varint.Int.Marshal(int(v), bs) }

func (categoryMUS) Unmarshal(bs []byte) (Category, int, error) {
	v, n, err := varint.Int.Unmarshal(bs)
	return Category(v), n, err
}

type conceptMUS struct{}

func (conceptMUS) Size(v Concept) (size int) {
	size = ord.String.Size(v.Label)
	size += CategoryMUS.Size(v.Category)
	size += sizeFloat64(v.Confidence)
	return size + sizeFloat64(v.Weight)
}

func (conceptMUS) Marshal(v Concept, bs []byte) (n int) {
	n = ord.String.Marshal(v.Label, bs)
	n += CategoryMUS.Marshal(v.Category, bs[n:])
	n += marshalFloat64(v.Confidence, bs[n:])
	return n + marshalFloat64(v.Weight, bs[n:])
}

func (conceptMUS) Unmarshal(bs []byte) (v Concept, n int, err error) {
	var n1 int
	if v.Label, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Category, n1, err = CategoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Confidence, n1, err = unmarshalFloat64(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Weight, n1, err = unmarshalFloat64(bs[n:])
	n += n1
	return
}

type postingMUS struct{}

func (postingMUS) Size(v Posting) (size int) {
	size = ord.String.Size(v.DocumentId)
	size += ord.String.Size(v.ChunkId)
	return size + sizeFloat64(v.Weight)
}

func (postingMUS) Marshal(v Posting, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocumentId, bs)
	n += ord.String.Marshal(v.ChunkId, bs[n:])
	return n + marshalFloat64(v.Weight, bs[n:])
}

func (postingMUS) Unmarshal(bs []byte) (v Posting, n int, err error) {
	var n1 int
	if v.DocumentId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.ChunkId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Weight, n1, err = unmarshalFloat64(bs[n:])
	n += n1
	return
}

type indexEntryMUS struct{}

func (indexEntryMUS) Size(v IndexEntry) (size int) {
	size = ord.String.Size(v.Label)
	size += CategoryMUS.Size(v.Category)
	return size + sizeSlice(v.Postings, PostingMUS.Size)
}

func (indexEntryMUS) Marshal(v IndexEntry, bs []byte) (n int) {
	n = ord.String.Marshal(v.Label, bs)
	n += CategoryMUS.Marshal(v.Category, bs[n:])
	return n + marshalSlice(v.Postings, bs[n:], PostingMUS.Marshal)
}

func (indexEntryMUS) Unmarshal(bs []byte) (v IndexEntry, n int, err error) {
	var n1 int
	if v.Label, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Category, n1, err = CategoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Postings, n1, err = unmarshalSlice(bs[n:], PostingMUS.Unmarshal)
	n += n1
	return
}

type chunkMUS struct{}

func (chunkMUS) Size(v Chunk) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.DocumentId)
	size += varint.Int.Size(v.Position)
	size += ord.String.Size(v.Text)
	return size + sizeSlice(v.Concepts, ConceptMUS.Size)
}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.DocumentId, bs[n:])
	n += varint.Int.Marshal(v.Position, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	return n + marshalSlice(v.Concepts, bs[n:], ConceptMUS.Marshal)
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.DocumentId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Concepts, n1, err = unmarshalSlice(bs[n:], ConceptMUS.Unmarshal)
	n += n1
	return
}

type documentMUS struct{}

func (documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.Text)
	size += CategoryMUS.Size(v.Category)
	size += varint.Uint64.Size(v.Sequence)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	return size + sizeSlice(v.Chunks, ChunkMUS.Size)
}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += CategoryMUS.Marshal(v.Category, bs[n:])
	n += varint.Uint64.Marshal(v.Sequence, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	return n + marshalSlice(v.Chunks, bs[n:], ChunkMUS.Marshal)
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var (
		n1     int
		micros int64
	)
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Category, n1, err = CategoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Sequence, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micros).UTC()
	v.Chunks, n1, err = unmarshalSlice(bs[n:], ChunkMUS.Unmarshal)
	n += n1
	return
}

type chunkVectorMUS struct{}

func (chunkVectorMUS) Size(v ChunkVector) (size int) {
	size = ord.String.Size(v.DocumentId)
	size += ord.String.Size(v.ChunkId)
	return size + sizeSlice(v.Vector, sizeFloat32)
}

func (chunkVectorMUS) Marshal(v ChunkVector, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocumentId, bs)
	n += ord.String.Marshal(v.ChunkId, bs[n:])
	return n + marshalSlice(v.Vector, bs[n:], marshalFloat32)
}

func (chunkVectorMUS) Unmarshal(bs []byte) (v ChunkVector, n int, err error) {
	var n1 int
	if v.DocumentId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	v.ChunkId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalSlice(bs[n:], unmarshalFloat32)
	n += n1
	return
}

// Floats are stored as their IEEE-754 bit patterns.

func sizeFloat64(f float64) int { return varint.Uint64.Size(math.Float64bits(f)) }

func marshalFloat64(f float64, bs []byte) int {
	return varint.Uint64.Marshal(math.Float64bits(f), bs)
}

func unmarshalFloat64(bs []byte) (float64, int, error) {
	bits, n, err := varint.Uint64.Unmarshal(bs)
	return math.Float64frombits(bits), n, err
}

func sizeFloat32(f float32) int { return varint.Uint64.Size(uint64(math.Float32bits(f))) }

func marshalFloat32(f float32, bs []byte) int {
	return varint.Uint64.Marshal(uint64(math.Float32bits(f)), bs)
}

func unmarshalFloat32(bs []byte) (float32, int, error) {
	bits, n, err := varint.Uint64.Unmarshal(bs)
	if err == nil && bits > math.MaxUint32 {
		err = ErrMalformedRecord
	}
	return math.Float32frombits(uint32(bits)), n, err
}

// Slices are length-prefixed.

func sizeSlice[T any](vs []T, size func(T) int) int {
	total := varint.Int.Size(len(vs))
	for _, v := range vs {
		total += size(v)
	}
	return total
}

func marshalSlice[T any](vs []T, bs []byte, marshal func(T, []byte) int) int {
	n := varint.Int.Marshal(len(vs), bs)
	for _, v := range vs {
		n += marshal(v, bs[n:])
	}
	return n
}

func unmarshalSlice[T any](bs []byte, unmarshal func([]byte) (T, int, error)) ([]T, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	// Every element takes at least one byte.
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrMalformedRecord
	}
	if length == 0 {
		return nil, n, nil
	}
	out := make([]T, length)
	for i := range out {
		v, n1, err := unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		out[i] = v
	}
	return out, n, nil
}
