package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the admission pipeline.
type Metrics struct {
	RegistrationsAdmitted prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
	HandleLookups         *prometheus.CounterVec
	VerdictCacheHits      prometheus.Counter
	AdmissionDuration     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinmap_registrations_admitted_total",
			Help: "Registrations that passed every admission check and were stored.",
		}),
		RegistrationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pinmap_registrations_rejected_total",
			Help: "Registrations rejected, partitioned by error code.",
		}, []string{"reason"}),
		HandleLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pinmap_handle_lookups_total",
			Help: "External handle lookups, partitioned by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		VerdictCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pinmap_verdict_cache_hits_total",
			Help: "Handle resolutions served from the verdict cache.",
		}),
		AdmissionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinmap_admission_duration_seconds",
			Help:    "Wall time of the full admission pipeline per request.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncRejected records a rejection by domain error code.
func (m *Metrics) IncRejected(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}

// IncLookup records one provider lookup outcome.
func (m *Metrics) IncLookup(strategy, outcome string) {
	m.HandleLookups.WithLabelValues(strategy, outcome).Inc()
}
