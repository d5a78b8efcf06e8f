package middleware

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/core/security"
)

// RequirePrivileged rejects callers without the privileged flag before the
// handler reads the body. The service enforces the same rule again.
func RequirePrivileged(op security.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := security.RequirePrivileged(c.Request.Context(), op); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
