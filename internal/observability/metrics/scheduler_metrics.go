package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics captures fee renewal sweep health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobErrors   *prometheus.CounterVec
	renewals    prometheus.Counter
	skips       prometheus.Counter
}

var (
	schedulerOnce    sync.Once
	schedulerMetrics *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics, registering them on
// first use.
func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer)
	})
	return schedulerMetrics
}

func newSchedulerMetrics(registerer prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentbill",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduler job executions by job name.",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentbill",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job duration by job name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentbill",
			Subsystem: "scheduler",
			Name:      "job_errors_total",
			Help:      "Scheduler job failures by job name.",
		}, []string{"job"}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentbill",
			Subsystem: "scheduler",
			Name:      "platform_fee_renewals_total",
			Help:      "Platform fee transactions renewed by the sweep.",
		}),
		skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentbill",
			Subsystem: "scheduler",
			Name:      "platform_fee_skips_total",
			Help:      "Due platform fee transactions skipped because another sweep renewed them first.",
		}),
	}
	registerer.MustRegister(m.jobRuns, m.jobDuration, m.jobErrors, m.renewals, m.skips)
	return m
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) AddRenewals(n int) {
	m.renewals.Add(float64(n))
}

func (m *SchedulerMetrics) AddSkips(n int) {
	m.skips.Add(float64(n))
}
