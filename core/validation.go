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

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Text must not be empty or whitespace only
//   - Category must be CategoryNone or a taxonomy category
//   - Chunks must belong to the document and have positions 0..n-1 in order
//
// NOT validated (populated later):
//   - Sequence and InsertedAt (assigned by storage)
//   - Chunk concepts (assigned by the index)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Id) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}

	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if doc.Category != CategoryNone && !doc.Category.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidDocument, ErrUnknownCategory, doc.Category)
	}

	for i := range doc.Chunks {
		chunk := &doc.Chunks[i]
		if err := ValidateChunk(chunk); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		if chunk.DocumentId != doc.Id {
			return fmt.Errorf("%w: chunk %s belongs to %q", ErrInvalidDocument, chunk.Id, chunk.DocumentId)
		}
		if chunk.Position != i {
			return fmt.Errorf("%w: chunk %s at position %d, expected %d", ErrInvalidDocument, chunk.Id, chunk.Position, i)
		}
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Id == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidChunk)
	}
	if chunk.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidChunk, chunk.Position)
	}
	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	for i := range chunk.Concepts {
		if err := ValidateConcept(&chunk.Concepts[i]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
		}
	}
	return nil
}

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - Label must not be empty
//   - Category must be a taxonomy category
//   - Confidence must be within [0,1]
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if concept.Label == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptLabel)
	}

	if !concept.Category.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConcept, ErrUnknownCategory, concept.Category)
	}

	if concept.Confidence < 0 || concept.Confidence > 1 {
		return fmt.Errorf("%w: %w: %f", ErrInvalidConcept, ErrConfidenceOutOfRange, concept.Confidence)
	}

	return nil
}
