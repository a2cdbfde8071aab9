package ingestion

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/poiesic/conceptrag/core"
)

// Default chunking parameters, in runes.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultMinChunkSize = 100
)

// chunkNamespace scopes chunk ids generated by the chunker.
var chunkNamespace = uuid.MustParse("6f1c5f0e-54a8-4d5e-9a0b-3c2f7d1e8b42")

// Chunker splits document text into overlapping chunks.
// A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
	min     int
}

// NewChunker creates a chunker. size must be positive, overlap must be
// smaller than size and min must not exceed size.
func NewChunker(size, overlap, min int) (*Chunker, error) {
	if size < 1 || overlap < 0 || overlap >= size || min < 0 || min > size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d min=%d", ErrInvalidChunking, size, overlap, min)
	}
	return &Chunker{size: size, overlap: overlap, min: min}, nil
}

// DefaultChunker returns a chunker with the default parameters.
func DefaultChunker() *Chunker {
	return &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap, min: DefaultMinChunkSize}
}

// ChunkID returns the deterministic id of the chunk at position in documentID.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, fmt.Appendf(nil, "%s#%d", documentID, position)).String()
}

// Split normalizes whitespace in text and cuts it into pieces of at most
// size runes. Cuts prefer sentence boundaries in the second half of the
// window; consecutive pieces share overlap runes. A trailing piece shorter
// than min is merged into its predecessor, which may then exceed size.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{string(runes)}
	}

	var (
		pieces []string
		starts []int
	)
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			tail := strings.TrimSpace(string(runes[start:]))
			if len([]rune(tail)) < c.min && len(pieces) > 0 {
				last := len(pieces) - 1
				pieces[last] = strings.TrimSpace(string(runes[starts[last]:]))
			} else if tail != "" {
				pieces = append(pieces, tail)
				starts = append(starts, start)
			}
			break
		}

		cut := sentenceBreak(runes[start:end])
		if cut == 0 {
			cut = c.size
		}
		piece := strings.TrimSpace(string(runes[start : start+cut]))
		if piece != "" {
			pieces = append(pieces, piece)
			starts = append(starts, start)
		}

		next := start + cut - c.overlap
		if next <= start {
			next = start + cut
		}
		start = next
	}
	return pieces
}

// sentenceBreak returns the offset just past the last sentence terminator
// in the second half of window, or 0 when there is none.
func sentenceBreak(window []rune) int {
	for i := len(window) - 2; i >= len(window)/2; i-- {
		switch window[i] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}
	return 0
}

// Chunk builds a document from text with chunks at positions 0..n-1.
func (c *Chunker) Chunk(documentID, text string, category core.Category) *core.Document {
	pieces := c.Split(text)
	doc := &core.Document{
		Id:       documentID,
		Text:     text,
		Category: category,
		Chunks:   make([]core.Chunk, len(pieces)),
	}
	for i, piece := range pieces {
		doc.Chunks[i] = core.Chunk{
			Id:         ChunkID(documentID, i),
			DocumentId: documentID,
			Position:   i,
			Text:       piece,
		}
	}
	return doc
}
