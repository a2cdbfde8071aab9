// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Similarity scores how close two texts are in meaning.
// Implementations must be thread-safe for concurrent use.
type Similarity interface {
	// SemanticSimilarity returns a score in [0,1]. Callers clip out-of-range
	// values and treat errors as a score of zero.
	SemanticSimilarity(ctx context.Context, a, b string) (float64, error)
}

// Generator produces natural-language answers from a prompt.
type Generator interface {
	// Generate returns the model completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// LocationExtractor finds a place name in a query.
type LocationExtractor interface {
	// ExtractLocation returns the place mentioned in text and whether one was found.
	ExtractLocation(ctx context.Context, text string) (string, bool, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// All returned services are safe for concurrent use.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Similarity returns the semantic similarity service.
	Similarity() Similarity

	// Generator returns the answer generation service.
	Generator() Generator

	// LocationExtractor returns the location extraction service.
	LocationExtractor() LocationExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
