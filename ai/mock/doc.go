// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Similarity,
// ai.Generator, ai.LocationExtractor and ai.AIProvider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	score, err := mockProvider.Similarity().SemanticSimilarity(ctx, "a", "b")
//
//	// Custom behavior injection
//	similarity := mock.NewMockSimilarity()
//	similarity.SemanticSimilarityFunc = func(ctx context.Context, a, b string) (float64, error) {
//	    return 0.9, nil
//	}
//
//	// Check call counts
//	count := similarity.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockSimilarity: Returns the Jaccard overlap of the lower-cased word sets
//   - MockGenerator: Returns a fixed answer that echoes the prompt length
//   - MockLocationExtractor: Finds no location
//   - MockProvider: Aggregates the mocks above
//
// All mocks count calls atomically and are safe for concurrent use as long as
// the injected functions are.
package mock
