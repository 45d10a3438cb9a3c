package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the ad server.
type Metrics struct {
	// Ingestion metrics
	EventsIngested *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
	IngestLatency  prometheus.Histogram

	// Selection metrics
	Selections *prometheus.CounterVec

	// Stats query metrics
	StatsQueries *prometheus.CounterVec

	// System metrics
	StorageErrors *prometheus.CounterVec
}

// Selection outcome labels.
const (
	SelectionUnseen   = "unseen"
	SelectionFallback = "fallback"
	SelectionNone     = "none"
)

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		EventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_ingested_total",
				Help:      "Total ad events accepted and stored",
			},
			[]string{"event_type"},
		),
		EventsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_rejected_total",
				Help:      "Ad events rejected before storage",
			},
			[]string{"reason"}, // validation, unknown_ad
		),
		IngestLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "event_ingest_latency_seconds",
				Help:      "Latency of the full ingest path (store append + stats increment)",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
		),
		Selections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ad_selections_total",
				Help:      "Ad selection requests by outcome",
			},
			[]string{"outcome"},
		),
		StatsQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stats_queries_total",
				Help:      "Stats queries by scope",
			},
			[]string{"scope"}, // ad, performer
		),
		StorageErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Storage operation failures surfaced to clients",
			},
			[]string{"operation"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEvent records an accepted event.
func (m *Metrics) RecordEvent(eventType string, latency time.Duration) {
	m.EventsIngested.WithLabelValues(eventType).Inc()
	m.IngestLatency.Observe(latency.Seconds())
}

// RecordRejection records an event rejected before storage.
func (m *Metrics) RecordRejection(reason string) {
	m.EventsRejected.WithLabelValues(reason).Inc()
}

// RecordSelection records a selection outcome.
func (m *Metrics) RecordSelection(outcome string) {
	m.Selections.WithLabelValues(outcome).Inc()
}

// RecordStatsQuery records a stats read.
func (m *Metrics) RecordStatsQuery(scope string) {
	m.StatsQueries.WithLabelValues(scope).Inc()
}

// RecordStorageError records a failed storage operation.
func (m *Metrics) RecordStorageError(operation string) {
	m.StorageErrors.WithLabelValues(operation).Inc()
}
