package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "searchbridge"

// Search and indexing Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"index", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Search round trip duration in seconds, including result mapping",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index"},
	)

	SpellcheckRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_spellcheck_retries_total",
			Help:      "Searches re-issued with spelling corrections",
		},
		[]string{"index"},
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "indexed_documents_total",
			Help:      "Documents sent to the engine",
		},
		[]string{"index", "status"}, // "ok" / "error"
	)

	RemovedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "removed_documents_total",
			Help:      "Record removals issued to the engine",
		},
		[]string{"index", "status"},
	)

	LedgerEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ledger_entries_total",
			Help:      "Failed writes recorded for reconciliation",
		},
		[]string{"index", "op"},
	)

	ReconciledEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconciled_entries_total",
			Help:      "Ledger entries cleared by reconciliation",
		},
		[]string{"index", "op"},
	)
)

var registerOnce sync.Once

// RegisterSearchMetrics registers search and indexing metrics. Call once from main.
func RegisterSearchMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			SpellcheckRetriesTotal,
			IndexedDocumentsTotal,
			RemovedDocumentsTotal,
			LedgerEntriesTotal,
			ReconciledEntriesTotal,
		)
	})
}

// Status returns the status label for err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
