package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/idempotency"
	"stockcore/internal/core/tenant"
	"stockcore/pkg/logger"
)

const (
	// HeaderIdempotencyKey carries the client's de-duplication key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed marks a response served from the store.
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// capturingWriter tees the response body so it can be stored for replay.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a mutating request sent again
// with the same Idempotency-Key. Must run after Auth. Errors raised by the
// handler are rendered here so their bodies are stored as well.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if r := appctx.RequestFrom(ctx); r != nil {
			r.IdempotencyKey = key
		}

		orgID, err := tenant.RequireOrg(ctx)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		uid, _ := appctx.Actor(ctx)

		req := idempotency.Request{
			OrgID:       orgID,
			Key:         key,
			UserID:      uid,
			Operation:   c.Request.Method + " " + c.FullPath(),
			RequestHash: hex.EncodeToString(hash[:]),
		}

		replay, err := store.Acquire(ctx, req)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()
		renderError(c)

		status := w.Status()
		if idempotency.Retryable(status) || !w.Written() {
			if err := store.Release(ctx, req); err != nil {
				logger.Warn(ctx, "idempotency release failed", "key", key, "error", err)
			}
			return
		}

		outcome := idempotency.StatusSuccess
		if status >= http.StatusBadRequest {
			outcome = idempotency.StatusFailed
		}
		err = store.Complete(ctx, req, outcome, idempotency.Replay{
			StatusCode:  status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			logger.Warn(ctx, "idempotency complete failed", "key", key, "error", err)
		}
	}
}
