package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrVectorRepositoryRequired is returned when a vector repository is not provided.
	ErrVectorRepositoryRequired = errors.New("vector repository required")

	// ErrIndexRepositoryRequired is returned when an index repository is not provided.
	ErrIndexRepositoryRequired = errors.New("index repository required")

	// ErrIndexRequired is returned when a concept index is not provided.
	ErrIndexRequired = errors.New("concept index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidChunking is returned for impossible chunking parameters.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrNoContent is returned when a document has no indexable text.
	ErrNoContent = errors.New("document has no content")
)
