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


package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/conceptrag/core"
)

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "minimal document",
			doc:  &core.Document{Id: "faq", Text: "How do I reset my password?", Sequence: 1, InsertedAt: now},
		},
		{
			name: "document with chunks and concepts",
			doc: &core.Document{
				Id:         "handbook",
				Text:       "Work Hours: Monday to Friday, 9:00 AM to 5:00 PM.",
				Category:   core.CategoryBusiness,
				Sequence:   42,
				InsertedAt: now,
				Chunks: []core.Chunk{{
					Id:         "c0",
					DocumentId: "handbook",
					Text:       "Work Hours: Monday to Friday, 9:00 AM to 5:00 PM.",
					Concepts: []core.Concept{
						{Label: "work", Category: core.CategoryBusiness, Confidence: 0.88, Weight: 1.5},
					},
				}},
			},
		},
		{
			name: "unicode text",
			doc:  &core.Document{Id: "ünïcödé", Text: "Café crème 東京", Sequence: 3, InsertedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			assert.Equal(t, tt.doc, decoded)
		})
	}
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", MarshalDocument(&core.Document{Id: "a", Text: "some text"})[:4]},
		{"trailing bytes", append(MarshalDocument(&core.Document{Id: "a", Text: "b"}), 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalChunkVector(t *testing.T) {
	vec := &core.ChunkVector{DocumentId: "d", ChunkId: "c", Vector: []float32{0.1, 0.2, -0.3}}
	decoded, err := UnmarshalChunkVector(MarshalChunkVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = UnmarshalChunkVector(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
