package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "stockcore/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

var tracer = otel.Tracer("stockcore/http")

// Trace opens a server span per request and attaches the request record
// every log line is correlated by. Without an installed tracer provider the
// span is a no-op and a caller-supplied X-Trace-ID is echoed instead.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		req := appctx.NewRequest(c.GetHeader(HeaderRequestID))
		if sc := span.SpanContext(); sc.HasTraceID() {
			req.TraceID = sc.TraceID().String()
		} else {
			req.TraceID = c.GetHeader(HeaderTraceID)
		}
		span.SetAttributes(attribute.String("stockcore.request_id", req.ID))

		c.Request = c.Request.WithContext(appctx.WithRequest(ctx, req))
		c.Set("request_id", req.ID)
		c.Header(HeaderRequestID, req.ID)
		if req.TraceID != "" {
			c.Header(HeaderTraceID, req.TraceID)
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
		if req.IdempotencyKey != "" {
			span.SetAttributes(attribute.String("stockcore.idempotency_key", req.IdempotencyKey))
		}
	}
}
