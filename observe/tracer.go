package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// HandlerMeta contains metadata about a handler for telemetry purposes.
type HandlerMeta struct {
	ID    string // Stable handler identifier (required)
	Route string // Route pattern the handler serves (optional)
	Name  string // Human-readable handler name (optional)
}

// SpanName returns the deterministic span name for this handler.
// Format: handler.resolve.<id>
func (m HandlerMeta) SpanName() string {
	return "handler.resolve." + m.ID
}

// Tracer wraps OpenTelemetry tracing with handler-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must propagate the incoming context.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a handler resolution.
	StartSpan(ctx context.Context, meta HandlerMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with handler metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta HandlerMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("handler.id", meta.ID),
		attribute.Bool("handler.error", false), // Updated in EndSpan on error
	}
	if meta.Route != "" {
		attrs = append(attrs, attribute.String("handler.route", meta.Route))
	}
	if meta.Name != "" {
		attrs = append(attrs, attribute.String("handler.name", meta.Name))
	}

	return t.tracer.Start(ctx, meta.SpanName(), trace.WithAttributes(attrs...))
}

// EndSpan ends the span, recording error status when err is non-nil.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("handler.error", true))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// newNoopTracer creates a Tracer that records nothing.
func newNoopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

// Ensure tracerImpl implements Tracer
var _ Tracer = (*tracerImpl)(nil)
