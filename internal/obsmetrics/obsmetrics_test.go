package obsmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRunMetricsRegistersAndCounts(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := NewRegistry(promReg)
	rm, err := NewRunMetrics(reg)
	if err != nil {
		t.Fatalf("NewRunMetrics: %v", err)
	}

	rm.UnitsTabulated.Add(3)
	rm.TiesDeterministic.Inc()
	rm.StageLatencySecs.Observe(0.5)
	rm.StageLatencySecs.Observe(1.5)

	var m dto.Metric
	if err := rm.UnitsTabulated.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected UnitsTabulated=3, got %v", got)
	}
	if got := rm.StageLatencySecs.Read(); got != 1.0 {
		t.Fatalf("expected average 1.0, got %v", got)
	}
}

func TestCounterIsIdempotentByName(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := NewRegistry(promReg)
	c1, err := reg.Counter("vmtally_test_total", "test counter")
	if err != nil {
		t.Fatalf("Counter: %v", err)
	}
	c2, err := reg.Counter("vmtally_test_total", "test counter")
	if err != nil {
		t.Fatalf("Counter (second call): %v", err)
	}
	if c1 != c2 {
		t.Fatalf("expected the same counter instance to be returned for a repeated name")
	}
}
