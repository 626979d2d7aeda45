package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.FetchAttempts.WithLabelValues("balances").Inc()
	m.FetchAttempts.WithLabelValues("balances").Inc()
	m.FetchRateLimited.Inc()

	if got := testutil.ToFloat64(m.FetchAttempts.WithLabelValues("balances")); got != 2 {
		t.Errorf("expected 2 attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.FetchRateLimited); got != 1 {
		t.Errorf("expected 1 rate limited, got %v", got)
	}
}

func TestSetConnectionState(t *testing.T) {
	SetConnectionState("connected")

	if got := testutil.ToFloat64(DefaultMetrics.ConnectionState.WithLabelValues("connected")); got != 1 {
		t.Errorf("connected gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.ConnectionState.WithLabelValues("disconnected")); got != 0 {
		t.Errorf("disconnected gauge = %v, want 0", got)
	}
}
