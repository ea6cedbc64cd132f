package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type handleKey struct{}

// Handle is the tracer installed for one CLI invocation.
type Handle struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// WithHandle enables StartSpan for ctx and its children.
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// From returns nil when tracing is off.
func From(ctx context.Context) *Handle {
	h, _ := ctx.Value(handleKey{}).(*Handle)
	return h
}

// StartSpan opens a span when a Handle is in ctx. The returned func ends it,
// recording err when non-nil. Without a Handle both are no-ops.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, func(err error)) {
	h := From(ctx)
	if h == nil {
		span := trace.SpanFromContext(ctx)
		return ctx, span, func(error) {}
	}

	ctx, span := h.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed")
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}
