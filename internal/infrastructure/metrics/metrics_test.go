package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.AccountOperations == nil || m.TransferInconsistencies == nil || m.InterestTicks == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.AccountOperations.WithLabelValues("deposit", OutcomeSuccess).Inc()
	m.InterestTicks.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.AccountOperations.WithLabelValues("deposit", OutcomeSuccess)); got != 1 {
		t.Fatalf("expected deposit counter to be 1, got %v", got)
	}
}

func TestNewOnSeparateRegistries(t *testing.T) {
	// each registry owns its own collectors, so repeated construction must not panic
	first := New(prometheus.NewRegistry())
	second := New(prometheus.NewRegistry())

	first.InterestTicks.Inc()

	if got := testutil.ToFloat64(second.InterestTicks); got != 0 {
		t.Fatalf("expected independent counters, got %v", got)
	}
}
