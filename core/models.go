package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier used for storage keys.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Concept is a typed, weighted label extracted from text.
// Concepts are immutable once produced by extraction.
type Concept struct {
	Label      string   // Normalized term (case-folded, stemmed)
	Category   Category // Taxonomy category that claimed the term
	Confidence float64  // Blend of statistical weight and category match, in [0,1]
	Weight     float64  // Statistical weight scaled by term importance
}

// Key returns the (label, category) identity of the concept.
func (c Concept) Key() string {
	return "(" + c.Category.String() + "," + c.Label + ")"
}

// Document is a single ingested source split into ordered chunks.
type Document struct {
	Id         string
	Text       string
	Category   Category  // Optional ingestion hint, CategoryNone when absent
	Sequence   uint64    // Ingestion order, assigned by storage
	InsertedAt time.Time // When the document was stored
	Chunks     []Chunk
}

// Chunk is a contiguous fragment of a document, the unit of retrieval.
type Chunk struct {
	Id         string
	DocumentId string
	Position   int // 0-based, defines adjacency
	Text       string
	Concepts   []Concept // Populated by the index at insert time
}

// ChunkVector holds the embedding of a chunk for nearest-neighbour search.
type ChunkVector struct {
	DocumentId string
	ChunkId    string
	Vector     []float32
}

// Posting links a concept label to a chunk with a relevance weight.
type Posting struct {
	DocumentId string
	ChunkId    string
	Weight     float64
}

// IndexEntry is the persisted form of one concept index record.
type IndexEntry struct {
	Label    string
	Category Category
	Postings []Posting
}

// QueryType is the coarse classification of a user query.
type QueryType string

const (
	QueryTypeGreeting     QueryType = "greeting"
	QueryTypeConceptBased QueryType = "conceptBased"
	QueryTypeSemantic     QueryType = "semantic"
	QueryTypeComplex      QueryType = "complex"
	QueryTypeExactMatch   QueryType = "exactMatch"
	QueryTypeAmbiguous    QueryType = "ambiguous"
)

// Query is created per request and never persisted.
type Query struct {
	Text     string
	Concepts []Concept
	Type     QueryType
}

// ActionType is one of the response strategies the selector may pick.
type ActionType int

const (
	ActionDirectResponse ActionType = iota + 1
	ActionConceptRetrieval
	ActionSemanticSearch
	ActionExternalDataIntent
)

var actionNames = map[ActionType]string{
	ActionDirectResponse:     "DirectResponse",
	ActionConceptRetrieval:   "ConceptRetrieval",
	ActionSemanticSearch:     "SemanticSearch",
	ActionExternalDataIntent: "ExternalDataIntent",
}

func (a ActionType) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}

// IsRetrieval reports whether the action needs ranked context.
func (a ActionType) IsRetrieval() bool {
	return a == ActionConceptRetrieval || a == ActionSemanticSearch
}

// ActionDecision is the terminal output of the action selector.
type ActionDecision struct {
	Action     ActionType
	Confidence float64
	Rationale  string
	Rule       string // Name of the rule that fired
	Location   string // Set for ActionExternalDataIntent
}

// RankedChunk is a candidate chunk with its score components.
type RankedChunk struct {
	Chunk     *Chunk
	Score     float64
	Overlap   float64
	Semantic  float64
	Coherence float64
	Affinity  float64 // Share of query concept weight whose category the chunk carries
	Sequence  uint64  // Ingestion sequence of the owning document
}

// SimilarityMatch is a nearest-neighbour hit from vector search.
type SimilarityMatch struct {
	DocumentId string
	ChunkId    string
	Score      float64
}

// Answer is the result handed back to callers of the engine.
type Answer struct {
	Decision ActionDecision
	Context  []string // Reconstructed context segments, in prompt order
	Sources  []string // Document IDs contributing context
	Text     string   // Generated answer; empty for ActionExternalDataIntent
}

// DominantCategory returns the non-general category with the highest
// accumulated weight·confidence. ok is false when no such category exists.
func DominantCategory(concepts []Concept) (Category, bool) {
	var scores [categoryCount + 1]float64
	var present [categoryCount + 1]bool
	for _, c := range concepts {
		if c.Category == CategoryGeneral || !c.Category.Valid() {
			continue
		}
		scores[c.Category] += c.Weight * c.Confidence
		present[c.Category] = true
	}
	best := CategoryNone
	for _, cat := range Categories() {
		if !present[cat] {
			continue
		}
		if best == CategoryNone || scores[cat] > scores[best] {
			best = cat
		}
	}
	return best, best != CategoryNone
}
