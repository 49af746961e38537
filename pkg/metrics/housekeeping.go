package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HousekeepingMetrics records outcomes of the scheduled cleanup jobs.
type HousekeepingMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	deleted  *prometheus.CounterVec
}

// NewHousekeepingMetrics registers the housekeeping metrics on the provided registerer.
func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_runs_total",
		Help: "Housekeeping job executions by result.",
	}, []string{"job", "result"})
	deleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_rows_deleted_total",
		Help: "Rows removed by housekeeping jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, deleted)
	return &HousekeepingMetrics{
		duration: duration,
		runs:     runs,
		deleted:  deleted,
	}
}

// ObserveRun records the duration and result of one job execution.
func (h *HousekeepingMetrics) ObserveRun(job string, took time.Duration, err error) {
	if h == nil || h.duration == nil {
		return
	}
	job = normalizeLabel(job)
	h.duration.WithLabelValues(job).Observe(took.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.runs.WithLabelValues(job, result).Inc()
}

// AddDeleted counts rows removed by a job.
func (h *HousekeepingMetrics) AddDeleted(job string, rows int64) {
	if h == nil || h.deleted == nil || rows <= 0 {
		return
	}
	h.deleted.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
