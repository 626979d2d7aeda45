// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch metrics
	FetchAttempts    *prometheus.CounterVec
	FetchRateLimited prometheus.Counter
	FetchOutcomes    *prometheus.CounterVec
	FetchLatency     prometheus.Histogram

	// Refresh metrics
	RefreshStepDuration *prometheus.HistogramVec
	RefreshStepErrors   *prometheus.CounterVec
	RefreshesCoalesced  prometheus.Counter

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec

	// Wallet metrics
	ConnectionState   *prometheus.GaugeVec
	TransfersTotal    *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_wallet_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "attempts_total",
			Help:      "Total number of outbound read attempts by endpoint kind",
		}, []string{"endpoint"}),
		FetchRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rate_limited_total",
			Help:      "Total number of rate-limited responses received",
		}),
		FetchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "outcomes_total",
			Help:      "Logical fetch outcomes by result",
		}, []string{"result"}),
		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "attempt_latency_seconds",
			Help:      "Latency of a single outbound read attempt in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		RefreshStepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "step_duration_seconds",
			Help:      "Refresh step duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"step"}),
		RefreshStepErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "step_errors_total",
			Help:      "Total number of failed refresh steps",
		}, []string{"step"}),
		RefreshesCoalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "coalesced_total",
			Help:      "Refresh requests that joined an in-flight refresh",
		}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		ConnectionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 otherwise",
		}, []string{"state"}),
		TransfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "transfers_total",
			Help:      "Transfers by chain and status",
		}, []string{"chain", "status"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "notifications_total",
			Help:      "User-visible notifications by variant",
		}, []string{"variant"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordFetchAttempt increments the attempt counter for an endpoint kind.
func RecordFetchAttempt(endpoint string, seconds float64) {
	DefaultMetrics.FetchAttempts.WithLabelValues(endpoint).Inc()
	DefaultMetrics.FetchLatency.Observe(seconds)
}

// RecordRateLimited increments the rate-limited counter.
func RecordRateLimited() {
	DefaultMetrics.FetchRateLimited.Inc()
}

// RecordFetchOutcome records the result of a logical fetch.
func RecordFetchOutcome(result string) {
	DefaultMetrics.FetchOutcomes.WithLabelValues(result).Inc()
}

// RecordRefreshStep records a refresh step duration and failure.
func RecordRefreshStep(step string, seconds float64, err error) {
	DefaultMetrics.RefreshStepDuration.WithLabelValues(step).Observe(seconds)
	if err != nil {
		DefaultMetrics.RefreshStepErrors.WithLabelValues(step).Inc()
	}
}

// RecordRefreshCoalesced increments the coalesced refresh counter.
func RecordRefreshCoalesced() {
	DefaultMetrics.RefreshesCoalesced.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// SetConnectionState marks state as the current connection state.
func SetConnectionState(state string) {
	for _, s := range []string{"disconnected", "connecting", "connected"} {
		v := 0.0
		if s == state {
			v = 1
		}
		DefaultMetrics.ConnectionState.WithLabelValues(s).Set(v)
	}
}

// RecordTransfer records a transfer outcome.
func RecordTransfer(chain, status string) {
	DefaultMetrics.TransfersTotal.WithLabelValues(chain, status).Inc()
}

// RecordNotification records a user-visible notification.
func RecordNotification(variant string) {
	DefaultMetrics.NotificationsSent.WithLabelValues(variant).Inc()
}
