package ingestion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/conceptrag/index"
	"github.com/poiesic/conceptrag/storage"
)

// indexProcessor persists snapshots of the concept index.
type indexProcessor struct {
	indexRepository storage.IndexRepository
	index           *index.Index
	logger          *slog.Logger

	mu      sync.Mutex // serializes snapshot writes
	pending int
}

var _ processor = (*indexProcessor)(nil)

func newIndexProcessor(repo storage.IndexRepository, idx *index.Index, logger *slog.Logger) (*indexProcessor, error) {
	if repo == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &indexProcessor{
		indexRepository: repo,
		index:           idx,
		logger:          logger.With("processor", "index"),
	}, nil
}

// process records that the documents changed the index.
func (ip *indexProcessor) process(_ context.Context, ids ...string) error {
	ip.mu.Lock()
	ip.pending += len(ids)
	ip.mu.Unlock()
	return nil
}

// checkpoint writes the current index snapshot. The snapshot is taken at
// write time, so the last checkpoint to run always stores the newest index.
func (ip *indexProcessor) checkpoint(ctx context.Context) error {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	data, err := ip.index.MarshalBinary()
	if err != nil {
		return err
	}
	if err := ip.indexRepository.SaveIndex(ctx, data); err != nil {
		return err
	}
	ip.logger.Debug("index checkpoint saved", "bytes", len(data), "changes", ip.pending)
	ip.pending = 0
	return nil
}
