package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records handler resolution metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording never blocks resolution.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordResolution records one resolution with its duration, whether it
	// was served from the instance cache, and its error status.
	RecordResolution(ctx context.Context, meta HandlerMeta, duration time.Duration, cached bool, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	hitCount     metric.Int64Counter
	missCount    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"handler.resolve.total",
		metric.WithDescription("Total number of handler resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"handler.resolve.errors",
		metric.WithDescription("Total number of failed handler resolutions"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"handler.cache.hits",
		metric.WithDescription("Resolutions served from the instance cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	missCount, err := meter.Int64Counter(
		"handler.cache.misses",
		metric.WithDescription("Resolutions that required a fresh build"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"handler.resolve.duration_ms",
		metric.WithDescription("Handler resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		hitCount:     hitCount,
		missCount:    missCount,
		durationHist: durationHist,
	}, nil
}

// RecordResolution records metrics for one handler resolution.
func (m *metricsImpl) RecordResolution(ctx context.Context, meta HandlerMeta, duration time.Duration, cached bool, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("handler.id", meta.ID),
	}
	if meta.Route != "" {
		attrs = append(attrs, attribute.String("handler.route", meta.Route))
	}

	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if cached {
		m.hitCount.Add(ctx, 1, opt)
	} else {
		m.missCount.Add(ctx, 1, opt)
	}
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordResolution(context.Context, HandlerMeta, time.Duration, bool, error) {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

// Ensure implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = noopMetrics{}
)
