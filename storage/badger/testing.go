package badger

import "github.com/poiesic/conceptrag/storage"

// NewMemoryRepositories creates in-memory document, vector and index repositories for testing.
// Returns docRepo, vectorRepo, indexRepo, backend, and error.
// Caller must close docRepo and backend when done.
func NewMemoryRepositories() (storage.DocumentRepository, storage.VectorRepository, storage.IndexRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return docRepo, NewVectorRepository(backend), NewIndexRepository(backend), backend, nil
}
