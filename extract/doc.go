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


// Package extract turns raw text into typed, weighted concepts.
//
// Extraction runs in four steps:
//   - Tokenize and normalize: case folding, diacritic removal, stop-word
//     filtering and light stemming.
//   - Statistical weighting: term frequency scaled by inverse document
//     frequency from the shared corpus statistics. Without statistics (the
//     first ingestion) raw term frequency is used.
//   - Taxonomy matching: every trigger term that claims a stem adds to that
//     category's score.
//   - Selection: a stem becomes a concept when its normalized weight reaches
//     the minimum weight or a category claims it.
//
// The Extractor holds no mutable state. Extract is a pure function of the text
// and the statistics passed in, so it is safe for concurrent use.
package extract
