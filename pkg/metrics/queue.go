package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics records dispatch outcomes for the email queue processor.
type QueueMetrics struct {
	jobs     *prometheus.CounterVec
	batches  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewQueueMetrics registers the queue metrics on the provided registerer.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_jobs_processed_total",
		Help: "Email jobs reaching an outcome during batch processing.",
	}, []string{"outcome"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_queue_batches_total",
		Help: "Queue processor batch executions.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "email_queue_batch_duration_seconds",
		Help:    "Duration of queue processor batches in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(jobs, batches, duration)
	return &QueueMetrics{jobs: jobs, batches: batches, duration: duration}
}

// IncJob counts one job outcome (sent, failed, skipped).
func (q *QueueMetrics) IncJob(outcome string) {
	if q == nil || q.jobs == nil {
		return
	}
	q.jobs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncBatch counts one batch run by result (success, error).
func (q *QueueMetrics) IncBatch(result string) {
	if q == nil || q.batches == nil {
		return
	}
	q.batches.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveBatchDuration records how long a batch took.
func (q *QueueMetrics) ObserveBatchDuration(duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.Observe(duration.Seconds())
}
