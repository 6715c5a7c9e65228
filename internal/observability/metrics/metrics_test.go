package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewAPIMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAPIMetrics(reg)

	m.ObserveRequest("GET", "/api/patients", "200", 0.02)
	m.ObserveCalendarFetch("month", "ok")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families registered")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *APIMetrics
	m.ObserveRequest("GET", "/health", "200", 0.001)
	m.ObserveCalendarFetch("week", "error")
}
