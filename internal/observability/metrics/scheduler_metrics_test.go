package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newSchedulerMetrics(registry)

	m.IncJobRun("renew_platform_fees")
	m.IncJobRun("renew_platform_fees")
	m.IncJobError("renew_platform_fees")
	m.ObserveJobDuration("renew_platform_fees", 250*time.Millisecond)
	m.AddRenewals(3)
	m.AddSkips(1)

	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("renew_platform_fees")); got != 2 {
		t.Fatalf("expected 2 job runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobErrors.WithLabelValues("renew_platform_fees")); got != 1 {
		t.Fatalf("expected 1 job error, got %v", got)
	}
	if got := testutil.ToFloat64(m.renewals); got != 3 {
		t.Fatalf("expected 3 renewals, got %v", got)
	}
	if got := testutil.ToFloat64(m.skips); got != 1 {
		t.Fatalf("expected 1 skip, got %v", got)
	}
}

func TestSchedulerSingletonReuse(t *testing.T) {
	first := Scheduler()
	second := Scheduler()
	if first != second {
		t.Fatal("expected the same scheduler metrics instance")
	}
}
