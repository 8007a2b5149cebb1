package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("Route Assignment")
	m.IncFailure("Route Assignment")
	m.ObserveDuration("Route Assignment", 2*time.Second)

	if got := testutil.CollectAndCount(reg, "job_success"); got != 1 {
		t.Fatalf("expected 1 success series, got %d", got)
	}
	if got := testutil.CollectAndCount(reg, "job_failure"); got != 1 {
		t.Fatalf("expected 1 failure series, got %d", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("x")
	m.IncFailure("x")
	m.ObserveDuration("x", time.Second)

	var w *WebhookMetrics
	w.IncReceived("storage_unit", "taskCompleted", "ok")
	w.IncDuplicate()
}

func TestNormalizeLabel(t *testing.T) {
	if normalizeLabel("  Route Offer ") != "route_offer" {
		t.Fatal("unexpected normalization")
	}
	if normalizeLabel("") != "unknown" {
		t.Fatal("expected unknown for empty label")
	}
}
