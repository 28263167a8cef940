package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestQueueMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewQueueMetrics(reg)
	metrics.IncJob("sent")
	metrics.IncJob("failed")
	metrics.IncBatch("success")
	metrics.ObserveBatchDuration(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "email_jobs_processed_total", "outcome", "sent"); err != nil {
		t.Fatalf("fetch sent: %v", err)
	} else if got != 1 {
		t.Fatalf("expected sent=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "email_jobs_processed_total", "outcome", "failed"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "email_queue_batches_total", "result", "success"); err != nil {
		t.Fatalf("fetch batches: %v", err)
	} else if got != 1 {
		t.Fatalf("expected batches=1, got %f", got)
	}
}

func TestQueueMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *QueueMetrics
	metrics.IncJob("sent")
	metrics.IncBatch("error")
	metrics.ObserveBatchDuration(time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with %s=%s not found", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
