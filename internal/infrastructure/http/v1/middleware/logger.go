package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockcore/pkg/logger"
)

// Logger writes one access line per request after the handler chain.
// Server errors log at error, stock and version conflicts at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			kv = append(kv, "query", q)
		}
		if c.Writer.Header().Get(HeaderIdempotentReplayed) != "" {
			kv = append(kv, "replayed", true)
		}
		if errs := c.Errors.String(); errs != "" {
			kv = append(kv, "error", errs)
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Errorw("http request", kv...)
		case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
			l.Warnw("http request", kv...)
		default:
			l.Infow("http request", kv...)
		}
	}
}
