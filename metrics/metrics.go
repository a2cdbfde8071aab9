// Package metrics exposes Prometheus instruments for the engine and a
// scoring monitor that feeds them.
package metrics

import (
	"net/http"
	"time"

	"github.com/poiesic/conceptrag/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "conceptrag"

// Rebuild reasons.
const (
	RebuildCorruption = "corruption"
	RebuildMissing    = "missing"
	RebuildManual     = "manual"
)

// Metrics holds the engine's instruments. All methods are safe for concurrent
// use; a nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	decisions          *prometheus.CounterVec
	answerDuration     *prometheus.HistogramVec
	documentsIngested  prometheus.Counter
	chunksIngested     prometheus.Counter
	similarityFailures prometheus.Counter
	neighborFailures   prometheus.Counter
	indexRebuilds      *prometheus.CounterVec
	generationFailures prometheus.Counter
	candidates         prometheus.Histogram
	candidateScores    prometheus.Histogram
}

// New registers the instruments with reg. Use a fresh prometheus.Registry per
// engine in tests; prometheus.DefaultRegisterer panics on duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Action decisions by action and query type",
		}, []string{"action", "query_type"}),
		answerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_duration_seconds",
			Help:      "Duration of answer requests by action",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		documentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents ingested",
		}),
		chunksIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks ingested",
		}),
		similarityFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_failures_total",
			Help:      "Semantic similarity calls that failed or timed out",
		}),
		neighborFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neighbor_search_failures_total",
			Help:      "Nearest-neighbour searches that failed",
		}),
		indexRebuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Full concept index rebuilds by reason",
		}, []string{"reason"}),
		generationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Answer generation calls that failed",
		}),
		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_candidates",
			Help:      "Candidate chunks evaluated per scoring run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		candidateScores: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_score",
			Help:      "Combined relevance score of scored candidates",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordDecision(decision core.ActionDecision, queryType core.QueryType) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision.Action.String(), string(queryType)).Inc()
}

func (m *Metrics) ObserveAnswer(action core.ActionType, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.answerDuration.WithLabelValues(action.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) DocumentIngested(chunks int) {
	if m == nil {
		return
	}
	m.documentsIngested.Inc()
	m.chunksIngested.Add(float64(chunks))
}

func (m *Metrics) IndexRebuilt(reason string) {
	if m == nil {
		return
	}
	m.indexRebuilds.WithLabelValues(reason).Inc()
}

func (m *Metrics) GenerationFailed() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}
