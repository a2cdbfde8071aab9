package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when a required repository is nil.
	ErrRepositoryRequired = errors.New("repository required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when no concept index is provided.
	ErrIndexRequired = errors.New("concept index required")
)
