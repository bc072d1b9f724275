// Package metrics defines all Prometheus metrics for anomalyd.
// All metrics use the "anomalyd_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "anomalyd"

// --- Table Metrics ---

var (
	// TableRows is the number of rows in the loaded prediction table.
	TableRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "table_rows",
		Help:      "Number of rows in the loaded prediction table.",
	})

	// TableAnomalies is the number of rows flagged as anomalies.
	TableAnomalies = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "table_anomalies",
		Help:      "Number of rows whose prediction equals 1.",
	})

	// TableLoadDuration records how long the startup load took.
	TableLoadDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "table_load_duration_seconds",
		Help:      "Time spent loading the prediction table at startup.",
	})

	// AnomaliesServed counts anomaly records returned to clients.
	AnomaliesServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalies_served_total",
		Help:      "Total anomaly records written in API responses.",
	})
)

// --- API Metrics ---

var (
	// APIRequests counts HTTP API requests by method, path, and status.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total HTTP API requests.",
	}, []string{"method", "path", "status"})

	// APIRequestDuration tracks API request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP API request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// --- Server Metrics ---

var (
	// ServerInfo is a constant gauge with server metadata.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_info",
		Help:      "Server metadata.",
	}, []string{"version"})

	// ServerStartTime is the Unix time the server started.
	ServerStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_start_time_seconds",
		Help:      "Unix timestamp of server start.",
	})
)
