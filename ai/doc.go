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


// Package ai provides abstractions for the model services the engine consumes.
//
// The decision core never talks to a model directly. It depends on the small
// interfaces declared here, and the engine wires a concrete provider in:
//
//   - Embedder: Generates vector embeddings from text
//   - Similarity: Scores the semantic similarity of two texts in [0,1]
//   - Generator: Produces an answer from a prompt
//   - LocationExtractor: Pulls a place name out of a query
//   - AIProvider: Aggregates the services for initialization and lifecycle
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockSimilarity, ...) return CONCRETE types so
// tests can inject behavior and assert on call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	score, err := provider.Similarity().SemanticSimilarity(ctx, "work hours", "office hours")
//	answer, err := provider.Generator().Generate(ctx, prompt)
package ai
