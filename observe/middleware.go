package observe

import (
	"context"
	"net/http"
	"time"
)

// ResolveFunc is the signature for handler resolution functions.
// Pool.Get fits it after binding the meta's ID.
type ResolveFunc func(ctx context.Context, meta HandlerMeta) (http.Handler, error)

// Middleware wraps handler resolution with observability (tracing,
// metrics, logging). The dispatch layer wraps its pool lookup once and
// calls the returned ResolveFunc per inbound request.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ResolveFunc.
//   - Context: propagates context through tracing spans.
//   - Errors: errors from the wrapped function are recorded and propagated
//     unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a ResolveFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ResolveFunc) ResolveFunc {
	return func(ctx context.Context, meta HandlerMeta) (http.Handler, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		h, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordResolution(ctx, meta, duration, false, err)

		logger := m.logger.WithHandler(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "handler resolution failed", fields...)
		} else {
			logger.Debug(ctx, "handler resolved", fields...)
		}

		return h, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
