package badger

import (
	"encoding/binary"
)

const (
	documentPrefix    = "docrec"
	documentSeqPrefix = "docseq"
	documentIDSeq     = "docrecseq"
	vectorPrefix      = "vecrec"
	indexSnapshotKey  = "cidx:snapshot"
)

// makeDocumentKey generates a key for a document by id.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + ":" + id)
}

// makeDocumentSeqKey generates a key for the ingestion order index.
// Format: prefix:sequence
func makeDocumentSeqKey(seq uint64) []byte {
	prefix := []byte(documentSeqPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeDocumentVectorPrefix generates the key prefix shared by a document's vectors.
// Format: prefix:documentID\x00
func makeDocumentVectorPrefix(documentID string) []byte {
	prefix := vectorPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(documentID)+1)
	buf = append(buf, prefix...)
	buf = append(buf, documentID...)
	return append(buf, 0)
}

// makeVectorKey generates a composite key for a chunk vector.
// Format: prefix:documentID\x00chunkID
func makeVectorKey(documentID, chunkID string) []byte {
	return append(makeDocumentVectorPrefix(documentID), chunkID...)
}
