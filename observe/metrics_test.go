package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		return 0
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

// TestMetrics_RecordsTotalAndMiss verifies a fresh build increments total and miss.
func TestMetrics_RecordsTotalAndMiss(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := HandlerMeta{ID: "users.show"}
	m.RecordResolution(context.Background(), meta, 10*time.Millisecond, false, nil)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "handler.resolve.total"); got != 1 {
		t.Errorf("handler.resolve.total = %d, want 1", got)
	}
	if got := counterValue(t, rm, "handler.cache.misses"); got != 1 {
		t.Errorf("handler.cache.misses = %d, want 1", got)
	}
	if got := counterValue(t, rm, "handler.cache.hits"); got != 0 {
		t.Errorf("handler.cache.hits = %d, want 0", got)
	}
}

// TestMetrics_RecordsHit verifies a cached resolution increments the hit counter.
func TestMetrics_RecordsHit(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := HandlerMeta{ID: "users.show"}
	m.RecordResolution(context.Background(), meta, time.Millisecond, true, nil)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "handler.cache.hits"); got != 1 {
		t.Errorf("handler.cache.hits = %d, want 1", got)
	}
}

// TestMetrics_RecordsErrors verifies failed resolutions increment the error counter.
func TestMetrics_RecordsErrors(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := HandlerMeta{ID: "users.show"}
	m.RecordResolution(context.Background(), meta, time.Millisecond, false, errors.New("boom"))
	m.RecordResolution(context.Background(), meta, time.Millisecond, false, nil)

	rm := collect(t, reader)
	if got := counterValue(t, rm, "handler.resolve.errors"); got != 1 {
		t.Errorf("handler.resolve.errors = %d, want 1", got)
	}
	if got := counterValue(t, rm, "handler.resolve.total"); got != 2 {
		t.Errorf("handler.resolve.total = %d, want 2", got)
	}
}

// TestMetrics_RecordsDuration verifies the duration histogram receives samples.
func TestMetrics_RecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := HandlerMeta{ID: "users.show"}
	m.RecordResolution(context.Background(), meta, 100*time.Millisecond, false, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "handler.resolve.duration_ms")
	if found == nil {
		t.Fatal("handler.resolve.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
		t.Error("expected one histogram sample")
	}
}

// TestNopMetrics verifies the no-op implementation never panics.
func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.RecordResolution(context.Background(), HandlerMeta{ID: "x"}, time.Second, true, errors.New("ignored"))
}
