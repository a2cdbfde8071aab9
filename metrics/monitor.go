package metrics

import (
	"log/slog"

	"github.com/poiesic/conceptrag/core"
	"github.com/poiesic/conceptrag/search"
)

// ScoreMonitor records scoring activity into Metrics and logs failures at debug.
type ScoreMonitor struct {
	metrics *Metrics
	logger  *slog.Logger
}

var _ search.ScoreMonitor = (*ScoreMonitor)(nil)

// NewScoreMonitor creates a monitor feeding m. A nil logger uses slog.Default().
func NewScoreMonitor(m *Metrics, logger *slog.Logger) *ScoreMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreMonitor{metrics: m, logger: logger.With("component", "score-monitor")}
}

func (s *ScoreMonitor) Start(_ *core.Query) {}

func (s *ScoreMonitor) AfterConceptLookup(labels []string, candidates int) {
	s.logger.Debug("concept lookup", "labels", len(labels), "candidates", candidates)
}

func (s *ScoreMonitor) AfterNeighborSearch(matches []core.SimilarityMatch, err error) {
	if err != nil {
		s.logger.Debug("neighbor search failed", "err", err)
		if s.metrics != nil {
			s.metrics.neighborFailures.Inc()
		}
		return
	}
	s.logger.Debug("neighbor search", "matches", len(matches))
}

func (s *ScoreMonitor) SimilarityFailed(chunkID string, err error) {
	s.logger.Debug("similarity failed", "chunk", chunkID, "err", err)
	if s.metrics != nil {
		s.metrics.similarityFailures.Inc()
	}
}

func (s *ScoreMonitor) CandidateScored(candidate core.RankedChunk) {
	if s.metrics != nil {
		s.metrics.candidateScores.Observe(candidate.Score)
	}
}

func (s *ScoreMonitor) Finish(results []core.RankedChunk) {
	if s.metrics != nil {
		s.metrics.candidates.Observe(float64(len(results)))
	}
}
