package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/apperror"
	"stockcore/pkg/logger"
)

// Recovery converts a handler panic into an internal error rendered by
// ErrorHandler. Any transaction the handler had open was rolled back by its
// deferred cleanup before the panic reached here. The stack goes to the log
// and the span, never to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			stack := string(debug.Stack())
			cause := fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)

			span := trace.SpanFromContext(ctx)
			span.RecordError(cause)
			span.SetStatus(codes.Error, "panic")

			logger.Error(ctx, "handler panicked", "error", cause.Error(), "stack", stack)

			_ = c.Error(apperror.NewInternal(cause).WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
		}()
		c.Next()
	}
}
