package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchStrategyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookmarkd",
			Name:      "search_strategy_duration_seconds",
			Help:      "Time spent scoring candidates per strategy",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	SearchStrategyResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookmarkd",
			Name:      "search_strategy_results",
			Help:      "Number of scored candidates produced per strategy",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"strategy"},
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookmarkd",
			Name:      "search_candidates",
			Help:      "Number of bookmarks scanned per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CorruptEmbeddingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookmarkd",
			Name:      "corrupt_embeddings_total",
			Help:      "Stored embeddings skipped because they could not be decoded",
		},
	)

	AnalyzerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookmarkd",
			Name:      "analyzer_requests_total",
			Help:      "Query analysis calls by outcome",
		},
		[]string{"status"}, // "success" / "error"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchStrategyDuration)
	prometheus.MustRegister(SearchStrategyResults)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(CorruptEmbeddingsTotal)
	prometheus.MustRegister(AnalyzerRequestsTotal)
	searchMetricsRegistered = true
}
