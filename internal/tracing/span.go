package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys set on every request span.
const (
	AttrCorrelationID = attribute.Key("salvo.correlation_id")
	AttrStatusCode    = attribute.Key("http.response.status_code")
	AttrFailureReason = attribute.Key("salvo.failure_reason")
)

// StartRequestSpan starts a client span for one GET against target.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, target, correlationID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, http.MethodGet,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodGet),
		attribute.String("url.full", target),
	)
	if correlationID != "" {
		span.SetAttributes(AttrCorrelationID.String(correlationID))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
