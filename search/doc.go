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


// Package search ranks indexed chunks against a query.
//
// The Scorer combines three signals per candidate chunk:
//   - Concept overlap: query concept weights matched against stored postings
//   - Semantic similarity: an external similarity service, clipped to [0,1]
//   - Category coherence: agreement of the dominant query and chunk categories
//
// score = α·overlap + β·semantic + γ·coherence, with weights summing to 1.
//
// Candidates come from the postings of the query labels, from an optional
// nearest-neighbour searcher and, for small corpora without one, from a full
// scan. Similarity calls run in parallel with a bounded fan-out and a per-call
// timeout. A failed call scores zero and never fails the ranking.
package search
