package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ScoresComputedTotal counts completed scoring runs by outcome.
	ScoresComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carehome",
		Subsystem: "scoring",
		Name:      "scores_computed_total",
		Help:      "Total number of staff-quality scoring runs, labeled by result.",
	}, []string{"result"})

	// ScoringDurationSeconds is end-to-end time per rescore, including
	// upstream fetches and the snapshot insert.
	ScoringDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "carehome",
		Subsystem: "scoring",
		Name:      "scoring_duration_seconds",
		Help:      "End-to-end time to rescore one home (fetch + score + store).",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})

	// UpstreamRequestsTotal counts calls to external APIs by service and outcome.
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carehome",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total number of upstream API requests, labeled by service and result.",
	}, []string{"service", "result"})

	// CacheLookupsTotal counts lookup-cache reads by cache name and hit/miss.
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carehome",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Total number of lookup cache reads, labeled by cache and outcome.",
	}, []string{"cache", "outcome"})

	// RefreshQueueDepth is the number of homes waiting in the current refresh cycle.
	RefreshQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carehome",
		Subsystem: "refresher",
		Name:      "queue_depth",
		Help:      "Number of homes queued for rescoring in the current cycle.",
	})

	// WebsocketClients is the number of connected dashboard clients.
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carehome",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Current number of connected WebSocket clients.",
	})

	// HTTPRequestsTotal counts API requests by path and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carehome",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by path and status code.",
	}, []string{"path", "status"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ScoresComputedTotal,
			ScoringDurationSeconds,
			UpstreamRequestsTotal,
			CacheLookupsTotal,
			RefreshQueueDepth,
			WebsocketClients,
			HTTPRequestsTotal,
		)
	})
}
