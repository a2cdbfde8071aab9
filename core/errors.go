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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidConcept indicates a Concept failed validation.
	ErrInvalidConcept = errors.New("invalid concept")

	// ErrEmptyDocumentID indicates the document Id field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyConceptLabel indicates the concept Label field is empty.
	ErrEmptyConceptLabel = errors.New("concept label cannot be empty")

	// ErrUnknownCategory indicates a category outside the taxonomy.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrConfidenceOutOfRange indicates a confidence outside [0,1].
	ErrConfidenceOutOfRange = errors.New("confidence must be within [0,1]")
)

// Pipeline failure modes. None of these are fatal to query answering
// except ErrExternalService raised by generation.
var (
	// ErrExtractionDegraded indicates non-empty text produced zero concepts.
	ErrExtractionDegraded = errors.New("extraction degraded")

	// ErrIndexUnavailable indicates the index is empty or not yet built.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrExternalService indicates a similarity, embedding or generation call failed.
	ErrExternalService = errors.New("external service error")

	// ErrIndexCorruption indicates a persisted index failed structural validation.
	ErrIndexCorruption = errors.New("index corruption")
)
