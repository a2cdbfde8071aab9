package search

import "github.com/poiesic/conceptrag/core"

// ScoreMonitor provides hooks to observe the scoring process.
// CandidateScored and SimilarityFailed may be called from several goroutines.
type ScoreMonitor interface {
	Start(query *core.Query)
	AfterConceptLookup(labels []string, candidates int)
	AfterNeighborSearch(matches []core.SimilarityMatch, err error)
	SimilarityFailed(chunkID string, err error)
	CandidateScored(candidate core.RankedChunk)
	Finish(results []core.RankedChunk)
}

// noopMonitor is a no-op implementation of ScoreMonitor
type noopMonitor struct{}

var _ ScoreMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.Query)                                  {}
func (n *noopMonitor) AfterConceptLookup(_ []string, _ int)                 {}
func (n *noopMonitor) AfterNeighborSearch(_ []core.SimilarityMatch, _ error) {}
func (n *noopMonitor) SimilarityFailed(_ string, _ error)                   {}
func (n *noopMonitor) CandidateScored(_ core.RankedChunk)                   {}
func (n *noopMonitor) Finish(_ []core.RankedChunk)                          {}
