package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/conceptrag/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDecision(core.ActionDecision{Action: core.ActionConceptRetrieval}, core.QueryTypeConceptBased)
	m.RecordDecision(core.ActionDecision{Action: core.ActionConceptRetrieval}, core.QueryTypeConceptBased)
	m.RecordDecision(core.ActionDecision{Action: core.ActionDirectResponse}, core.QueryTypeGreeting)
	m.DocumentIngested(3)
	m.DocumentIngested(2)
	m.IndexRebuilt(RebuildCorruption)
	m.GenerationFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("ConceptRetrieval", "conceptBased")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("DirectResponse", "greeting")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.documentsIngested))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.chunksIngested))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.indexRebuilds.WithLabelValues(RebuildCorruption)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.indexRebuilds.WithLabelValues(RebuildManual)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationFailures))
}

func TestMetrics_AnswerDuration(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveAnswer(core.ActionSemanticSearch, 120*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.answerDuration, "conceptrag_answer_duration_seconds"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordDecision(core.ActionDecision{Action: core.ActionDirectResponse}, core.QueryTypeGreeting)
		m.ObserveAnswer(core.ActionDirectResponse, time.Second)
		m.DocumentIngested(1)
		m.IndexRebuilt(RebuildManual)
		m.GenerationFailed()

		mon := NewScoreMonitor(nil, nil)
		mon.SimilarityFailed("c", errors.New("boom"))
		mon.AfterNeighborSearch(nil, errors.New("boom"))
		mon.CandidateScored(core.RankedChunk{Score: 0.5})
		mon.Finish(nil)
	})
}

func TestScoreMonitor(t *testing.T) {
	m := New(prometheus.NewRegistry())
	mon := NewScoreMonitor(m, nil)

	mon.Start(&core.Query{Text: "work hours"})
	mon.AfterConceptLookup([]string{"work", "hour"}, 2)
	mon.AfterNeighborSearch(nil, errors.New("vector store offline"))
	mon.SimilarityFailed("chunk-1", errors.New("timeout"))
	mon.SimilarityFailed("chunk-2", errors.New("timeout"))
	mon.CandidateScored(core.RankedChunk{Score: 0.7})
	mon.Finish([]core.RankedChunk{{Score: 0.7}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.similarityFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.neighborFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.candidateScores))
	assert.Equal(t, 1, testutil.CollectAndCount(m.candidates))
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.DocumentIngested(4)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "conceptrag_chunks_ingested_total 4"))
}
