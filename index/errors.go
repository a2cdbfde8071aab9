package index

import "errors"

var (
	// ErrExtractorRequired is returned when no extractor is provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrNilDocument is returned when a nil document is inserted.
	ErrNilDocument = errors.New("document is nil")
)

var (
	// ErrChunkConflict is returned when a chunk id is already owned by
	// another document, or appears twice within one document.
	ErrChunkConflict = errors.New("chunk id conflict")
)
