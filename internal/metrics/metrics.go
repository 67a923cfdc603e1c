// Package metrics is the process's Prometheus metric set: connection
// pool gauges (C6) and query-engine counters/histograms (C7), per
// SPEC_FULL.md §3's Metrics row.
//
// Grounded on cuemby-warren/pkg/metrics/metrics.go: package-level
// prometheus.NewGaugeVec/NewCounterVec/NewHistogramVec values registered
// once in init(), plus a Timer helper for histogram observation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsOpen is the number of live connections per dialect,
	// set by internal/connmgr on Connect/Disconnect.
	ConnectionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "larik_connections_open",
			Help: "Number of live connections by dialect",
		},
		[]string{"dialect"},
	)

	// PoolSize is the configured pool size for a connected id's dialect,
	// per spec.md §4.5 (SQL Server 5, Postgres 10).
	PoolSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "larik_connection_pool_size",
			Help: "Configured connection pool size by dialect",
		},
		[]string{"dialect"},
	)

	// ConnectErrorsTotal counts failed Connect calls by dialect.
	ConnectErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larik_connect_errors_total",
			Help: "Total number of failed connection attempts by dialect",
		},
		[]string{"dialect"},
	)

	// QueriesActive is the number of statements currently executing,
	// mirrored from internal/queryengine.Engine's active map.
	QueriesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "larik_queries_active",
			Help: "Number of statements currently executing",
		},
	)

	// QueriesTotal counts completed statement executions by dialect and
	// outcome ("completed", "failed", "cancelled").
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "larik_queries_total",
			Help: "Total number of statements executed by dialect and outcome",
		},
		[]string{"dialect", "outcome"},
	)

	// QueryDuration records statement execution latency by dialect.
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "larik_query_duration_seconds",
			Help:    "Statement execution duration in seconds by dialect",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dialect"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsOpen)
	prometheus.MustRegister(PoolSize)
	prometheus.MustRegister(ConnectErrorsTotal)
	prometheus.MustRegister(QueriesActive)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
}

// Handler returns the Prometheus scrape handler, exposed by cmd/larikd
// alongside the stdio command loop.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times one operation and reports its duration to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time since NewTimer to
// histogram, labeled by labelValues.
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labelValues ...string) {
	histogram.WithLabelValues(labelValues...).Observe(time.Since(t.start).Seconds())
}
