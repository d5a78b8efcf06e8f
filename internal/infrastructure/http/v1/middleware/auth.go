// Package middleware is the gin middleware chain of the stockcore API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/apperror"
	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain/auth"
)

// TokenValidator turns a bearer token into the caller and its organization.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Principal, error)
}

// Auth resolves the caller from the Authorization header. Every request past
// it carries a user (with Privileged already decided) and an organization.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		principal, err := validator.ValidateToken(token)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}
		if id.IsNil(principal.OrgID) {
			_ = c.Error(apperror.NewUnauthorized("token is not bound to an organization"))
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), principal.User)
		ctx = tenant.WithOrg(ctx, principal.OrgID)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("stockcore.org_id", principal.OrgID.String()),
			attribute.String("stockcore.user_id", principal.User.UserID),
			attribute.Bool("stockcore.privileged", principal.User.Privileged),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperror.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperror.NewUnauthorized("authorization header must be a bearer token")
	}
	return token, nil
}
