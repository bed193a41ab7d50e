package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)

	metrics.IncCartMutation("add_item")
	metrics.IncCartMutation("add_item")
	metrics.IncOrderCreated("delivery")
	metrics.IncStatusChange("accepted")
	metrics.ObserveSubmitDuration("delivery", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", "operation", "add_item"); err != nil {
		t.Fatalf("fetch cart mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cart_mutations_total=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "delivery_option", "delivery"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders_created_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_status_changes_total", "status", "accepted"); err != nil {
		t.Fatalf("fetch status changes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected order_status_changes_total=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "order_submit_duration_seconds", "delivery_option", "delivery"); err != nil {
		t.Fatalf("fetch submit duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestOrderMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewOrderMetrics(nil)
	metrics.IncCartMutation("add_item")
	metrics.IncOrderCreated("pickup")
	metrics.IncStatusChange("ready")
	metrics.ObserveSubmitDuration("pickup", time.Second)
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
