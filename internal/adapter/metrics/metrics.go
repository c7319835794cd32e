package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docqa"

// Metrics holds all Prometheus metrics for the question-answering service.
type Metrics struct {
	AskTotal          *prometheus.CounterVec
	AuthFailures      *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	DocumentsLoaded   *prometheus.GaugeVec
	AnswerCacheHits   prometheus.Counter
	AnswerCacheMisses prometheus.Counter
	RateLimited       *prometheus.CounterVec
	AuditWALActive    prometheus.Gauge
}

// New initializes the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AskTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "total",
			Help:      "Total number of questions by tenant and outcome.",
		}, []string{"tenant", "outcome"}), // outcome: answered, no_information, invalid, error
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total number of rejected requests by reason.",
		}, []string{"reason"}), // reason: missing, invalid
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Time spent scoring a tenant corpus.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"engine"}),
		DocumentsLoaded: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "documents_loaded",
			Help:      "Number of documents currently held per tenant.",
		}, []string{"tenant"}),
		AnswerCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of answer cache hits.",
		}),
		AnswerCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of answer cache misses.",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the per-tenant limiter.",
		}, []string{"tenant"}),
		AuditWALActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "wal_active",
			Help:      "Indicates if the audit Write-Ahead Log is currently active (1 for active, 0 for inactive).",
		}),
	}
}
