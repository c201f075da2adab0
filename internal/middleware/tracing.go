package middleware

import (
    "github.com/labstack/echo/v4"
    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/propagation"
    "go.opentelemetry.io/otel/trace"

    "github.com/iliyamo/yoga-studio-booking/internal/observability"
)

// Tracing starts a server span per request, continuing any W3C trace
// context the client sent.
func Tracing() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
            ctx, span := observability.StartSpan(ctx, req.Method+" "+c.Path(),
                trace.WithSpanKind(trace.SpanKindServer),
                trace.WithAttributes(
                    attribute.String("http.request.method", req.Method),
                    attribute.String("http.route", c.Path()),
                    attribute.String("url.path", req.URL.Path),
                ),
            )
            defer span.End()
            c.SetRequest(req.WithContext(ctx))

            err := next(c)
            status := c.Response().Status
            span.SetAttributes(attribute.Int("http.response.status_code", status))
            if err != nil {
                span.RecordError(err)
            }
            if status >= 500 {
                span.SetStatus(codes.Error, "server error")
            }
            return err
        }
    }
}
