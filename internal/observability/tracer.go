// Package observability sets up OpenTelemetry tracing.  When tracing is
// disabled the global no-op provider stays in place and StartSpan costs
// next to nothing.
package observability

import (
    "context"
    "fmt"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/sdk/resource"
    tracesdk "go.opentelemetry.io/otel/sdk/trace"
    semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
    "go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for spans started here.
const TracerName = "github.com/iliyamo/yoga-studio-booking"

// InitTracer installs a global tracer provider exporting over OTLP/HTTP to
// endpoint (host:port).  The returned shutdown flushes pending spans.
func InitTracer(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
    exp, err := otlptracehttp.New(ctx,
        otlptracehttp.WithEndpoint(endpoint),
        otlptracehttp.WithInsecure(),
    )
    if err != nil {
        return nil, fmt.Errorf("otlp exporter: %w", err)
    }
    res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
    if err != nil {
        return nil, fmt.Errorf("otel resource: %w", err)
    }
    tp := tracesdk.NewTracerProvider(
        tracesdk.WithBatcher(exp),
        tracesdk.WithResource(res),
        tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.AlwaysSample())),
    )
    otel.SetTracerProvider(tp)
    otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
        propagation.TraceContext{},
        propagation.Baggage{},
    ))
    return tp.Shutdown, nil
}

// StartSpan starts a span named name under the package tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
    return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
    if err != nil {
        span.RecordError(err)
    }
    span.End()
}
