package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/apperror"
	"stockcore/pkg/logger"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler recorded with c.Error.
// Causes of internal errors are logged and attached to the span only.
// Errors a client may simply resend get a Retry-After hint.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		renderError(c)
	}
}

func renderError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	ctx := c.Request.Context()
	err := c.Errors.Last().Err

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, appErr.Code)
		logger.Error(ctx, "request failed", "code", appErr.Code, "error", err)
		appErr = appErr.WithDetail("request_id", c.GetString("request_id"))
	} else if appErr.Err != nil {
		logger.Warn(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
	}
	if apperror.Transient(appErr) {
		c.Header("Retry-After", "1")
	}

	c.JSON(appErr.HTTPStatus, errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
