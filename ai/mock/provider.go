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


package mock

import "github.com/poiesic/conceptrag/ai"

var _ ai.AIProvider = (*MockProvider)(nil)

// MockProvider is a test double for ai.AIProvider.
// It aggregates the mock services.
type MockProvider struct {
	embedder   *MockEmbedder
	similarity *MockSimilarity
	generator  *MockGenerator
	locator    *MockLocationExtractor
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns *MockProvider so tests can reach the concrete mocks through the
// GetMock accessors.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		similarity: NewMockSimilarity(),
		generator:  NewMockGenerator(),
		locator:    NewMockLocationExtractor(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Similarity returns the mock similarity service.
func (p *MockProvider) Similarity() ai.Similarity {
	return p.similarity
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// LocationExtractor returns the mock location extractor.
func (p *MockProvider) LocationExtractor() ai.LocationExtractor {
	return p.locator
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSimilarity returns the underlying mock similarity service.
func (p *MockProvider) GetMockSimilarity() *MockSimilarity {
	return p.similarity
}

// GetMockGenerator returns the underlying mock generator.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

// GetMockLocationExtractor returns the underlying mock location extractor.
func (p *MockProvider) GetMockLocationExtractor() *MockLocationExtractor {
	return p.locator
}
