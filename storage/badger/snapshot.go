package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/conceptrag/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{
		backend: backend,
	}
}

// SaveIndex persists the concept index snapshot, replacing the previous one.
func (r *IndexRepository) SaveIndex(ctx context.Context, data []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(indexSnapshotKey), slices.Clone(data)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadIndex retrieves the concept index snapshot.
// Returns nil, nil if no snapshot exists.
func (r *IndexRepository) LoadIndex(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(indexSnapshotKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	}, false)

	return data, err
}
