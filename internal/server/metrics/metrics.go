// Package metrics holds the Prometheus collectors of the auth service.
// Collectors are package-level; call RegisterMetrics once at startup.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for credential operations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Results of a pool initialisation attempt.
const (
	PoolInitReady  = "ready"
	PoolInitFailed = "failed"
)

// CredentialOperations counts register/authenticate calls by the store that
// served them ("durable" or "fallback").
var CredentialOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krishiauth_credential_operations_total",
		Help: "Credential store operations by operation, serving store and outcome",
	},
	[]string{"operation", "source", "outcome"},
)

// TokenRejections keeps invalid and expired tokens apart even though the
// HTTP contract reports both as 401.
var TokenRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krishiauth_token_rejections_total",
		Help: "Session tokens rejected at the session boundary, by carrier and reason",
	},
	[]string{"carrier", "reason"},
)

var PoolInitializations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krishiauth_pool_initializations_total",
		Help: "Connection pool initialisation attempts by result",
	},
	[]string{"result"},
)

var DatabasesCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "krishiauth_databases_created_total",
		Help: "CREATE DATABASE statements issued on first run",
	},
)

// StoreAvailable is 1 while the durable store answers pings.
var StoreAvailable = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "krishiauth_durable_store_available",
		Help: "Whether the durable credential store is reachable (1) or not (0)",
	},
)

var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "krishiauth_http_requests_total",
		Help: "HTTP requests by method, route template and status code",
	},
	[]string{"method", "route", "status"},
)

var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "krishiauth_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// RegisterMetrics registers every collector with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		CredentialOperations,
		TokenRejections,
		PoolInitializations,
		DatabasesCreated,
		StoreAvailable,
		HTTPRequests,
		HTTPDuration,
	)
}

func RecordCredentialOperation(operation, source, outcome string) {
	CredentialOperations.WithLabelValues(operation, source, outcome).Inc()
}

func RecordTokenRejection(carrier, reason string) {
	TokenRejections.WithLabelValues(carrier, reason).Inc()
}

func RecordPoolInit(result string) {
	PoolInitializations.WithLabelValues(result).Inc()
}

func SetStoreAvailable(up bool) {
	if up {
		StoreAvailable.Set(1)
		return
	}
	StoreAvailable.Set(0)
}

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
