package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics records dispatch and enqueue outcomes.
type NotificationMetrics struct {
	dispatched *prometheus.CounterVec
	enqueued   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewNotificationMetrics registers the notification metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_total",
		Help: "Dispatch attempts by queue and outcome.",
	}, []string{"queue", "outcome"})
	enqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_enqueue_total",
		Help: "Notification records written by the booking mappers.",
	}, []string{"type", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Time spent dispatching one notification record.",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})
	reg.MustRegister(dispatched, enqueued, duration)
	return &NotificationMetrics{
		dispatched: dispatched,
		enqueued:   enqueued,
		duration:   duration,
	}
}

// ObserveDispatch records one dispatch outcome and its duration.
func (m *NotificationMetrics) ObserveDispatch(queue, outcome string, took time.Duration) {
	if m == nil || m.dispatched == nil {
		return
	}
	queue = normalizeLabel(queue)
	m.dispatched.WithLabelValues(queue, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(queue).Observe(took.Seconds())
}

// IncEnqueue counts one enqueue attempt. ok selects the result label.
func (m *NotificationMetrics) IncEnqueue(notificationType string, ok bool) {
	if m == nil || m.enqueued == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.enqueued.WithLabelValues(normalizeLabel(notificationType), result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
