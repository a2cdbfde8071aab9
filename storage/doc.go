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


// Package storage provides the storage abstraction layer for conceptrag.
//
// This package defines repository interfaces that decouple storage implementation
// from the retrieval engine. The engine keeps three kinds of state:
//
//   - DocumentRepository: ingested documents with their chunks, ordered by an
//     ingestion sequence assigned at insert time
//   - VectorRepository: chunk embeddings used for nearest-neighbour search
//   - IndexRepository: the serialized concept index snapshot
//
// The concept index itself lives in memory (package index); only its snapshot
// is persisted here. A corrupt or missing snapshot is rebuilt from the
// documents, so the document repository is the source of truth.
//
// # Usage
//
// Open a BadgerDB backend and create repositories on top of it:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	docs, err := badger.NewDocumentRepository(backend)
//
// Use in tests with in-memory storage:
//
//	docs, vectors, snapshots, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
