package index

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/conceptrag/core"
)

const (
	snapshotMagic   = "CIDX"
	snapshotVersion = 1
	checksumSize    = blake2b.Size256
	headerSize      = len(snapshotMagic) + 1
)

// MarshalBinary serializes the current snapshot: magic, version, documents
// with their chunk concepts, the entries keyed by label, and a BLAKE2b-256
// checksum over everything before it.
func (idx *Index) MarshalBinary() ([]byte, error) {
	snap := idx.current.Load()
	return encodeSnapshot(snap.sortedDocuments(), snap.indexEntries()), nil
}

func encodeSnapshot(docs []*core.Document, entries []core.IndexEntry) []byte {
	size := headerSize + varint.Int.Size(len(docs)) + varint.Int.Size(len(entries)) + checksumSize
	for _, d := range docs {
		size += core.DocumentMUS.Size(*d)
	}
	for _, e := range entries {
		size += core.IndexEntryMUS.Size(e)
	}

	bs := make([]byte, size)
	n := copy(bs, snapshotMagic)
	bs[n] = snapshotVersion
	n++
	n += varint.Int.Marshal(len(docs), bs[n:])
	for _, d := range docs {
		n += core.DocumentMUS.Marshal(*d, bs[n:])
	}
	n += varint.Int.Marshal(len(entries), bs[n:])
	for _, e := range entries {
		n += core.IndexEntryMUS.Marshal(e, bs[n:])
	}
	sum := blake2b.Sum256(bs[:n])
	n += copy(bs[n:], sum[:])
	return bs[:n]
}

// UnmarshalBinary replaces the index with a serialized snapshot. The snapshot
// is validated before it is published: the checksum must match, every posting
// must reference an existing chunk whose concept set holds the label with the
// same weight, and the stored entries must equal the ones derived from the
// documents. Failures wrap core.ErrIndexCorruption and leave the index unchanged.
func (idx *Index) UnmarshalBinary(data []byte) error {
	next, err := decodeSnapshot(data)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.current.Store(next)
	idx.mu.Unlock()

	idx.logger.Debug("index loaded", "documents", len(next.documents), "labels", len(next.entries))
	return nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrIndexCorruption, fmt.Sprintf(format, args...))
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	if len(data) < headerSize+checksumSize {
		return nil, corrupt("snapshot too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:len(snapshotMagic)], []byte(snapshotMagic)) {
		return nil, corrupt("bad magic")
	}
	if v := data[len(snapshotMagic)]; v != snapshotVersion {
		return nil, corrupt("unsupported version %d", v)
	}
	body, stored := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	sum := blake2b.Sum256(body)
	if !bytes.Equal(sum[:], stored) {
		return nil, corrupt("checksum mismatch")
	}

	bs := body[headerSize:]
	docCount, n, err := varint.Int.Unmarshal(bs)
	if err != nil || docCount < 0 || docCount > len(bs) {
		return nil, corrupt("document count: %v", err)
	}
	docs := make([]*core.Document, 0, docCount)
	for range docCount {
		d, n1, err := core.DocumentMUS.Unmarshal(bs[n:])
		if err != nil {
			return nil, corrupt("document %d: %v", len(docs), err)
		}
		n += n1
		docs = append(docs, &d)
	}

	entryCount, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil || entryCount < 0 || entryCount > len(bs) {
		return nil, corrupt("entry count: %v", err)
	}
	n += n1
	entries := make([]core.IndexEntry, 0, entryCount)
	for range entryCount {
		e, n1, err := core.IndexEntryMUS.Unmarshal(bs[n:])
		if err != nil {
			return nil, corrupt("entry %d: %v", len(entries), err)
		}
		n += n1
		entries = append(entries, e)
	}
	if n != len(bs) {
		return nil, corrupt("%d trailing bytes", len(bs)-n)
	}

	next := emptySnapshot()
	for _, d := range docs {
		if err := core.ValidateDocument(d); err != nil {
			return nil, corrupt("document %q: %v", d.Id, err)
		}
		if _, dup := next.documents[d.Id]; dup {
			return nil, corrupt("duplicate document %q", d.Id)
		}
		for i := range d.Chunks {
			if _, dup := next.chunks[d.Chunks[i].Id]; dup {
				return nil, corrupt("duplicate chunk %q", d.Chunks[i].Id)
			}
			next.chunks[d.Chunks[i].Id] = &d.Chunks[i]
		}
		next.documents[d.Id] = d
	}

	if err := validateEntries(next, entries); err != nil {
		return nil, err
	}

	rebuilt := emptySnapshot()
	for _, d := range docs {
		if d.Sequence == 0 {
			return nil, corrupt("document %q has no sequence", d.Id)
		}
		rebuilt.addTerms(d)
		rebuilt.addPostings(d)
	}
	derived := rebuilt.indexEntries()
	if len(derived) != len(entries) {
		return nil, corrupt("%d entries stored, %d derived from documents", len(entries), len(derived))
	}
	for i := range derived {
		if !entriesEqual(derived[i], entries[i]) {
			return nil, corrupt("entry %q does not match its documents", entries[i].Label)
		}
	}
	return rebuilt, nil
}

// validateEntries checks that every stored posting is backed by a chunk concept.
func validateEntries(snap *snapshot, entries []core.IndexEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Label == "" {
			return corrupt("entry %d has no label", i)
		}
		if _, dup := seen[e.Label]; dup {
			return corrupt("duplicate entry %q", e.Label)
		}
		seen[e.Label] = struct{}{}
		if !e.Category.Valid() {
			return corrupt("entry %q has invalid category %d", e.Label, e.Category)
		}
		if len(e.Postings) == 0 {
			return corrupt("entry %q has no postings", e.Label)
		}
		for _, p := range e.Postings {
			chunk, ok := snap.chunks[p.ChunkId]
			if !ok || chunk.DocumentId != p.DocumentId {
				return corrupt("entry %q references unknown chunk %s/%s", e.Label, p.DocumentId, p.ChunkId)
			}
			i := slices.IndexFunc(chunk.Concepts, func(c core.Concept) bool {
				return c.Label == e.Label && c.Confidence == p.Weight
			})
			if i < 0 {
				return corrupt("entry %q posting on chunk %s has no matching concept", e.Label, p.ChunkId)
			}
		}
		slices.SortFunc(e.Postings, comparePostings)
	}
	slices.SortFunc(entries, func(a, b core.IndexEntry) int { return strings.Compare(a.Label, b.Label) })
	return nil
}

func entriesEqual(a, b core.IndexEntry) bool {
	return a.Label == b.Label && a.Category == b.Category && slices.Equal(a.Postings, b.Postings)
}
