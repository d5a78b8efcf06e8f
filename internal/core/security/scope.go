// Package security provides authorization and access control.
//
// The engine does not authenticate anybody. It consumes a single boolean,
// "is privileged", computed here from the caller's roles by a CEL policy,
// and rejects privileged-only operations when it is false.
package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/apperror"
)

// Role names issued by the session layer.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// DefaultPrivilegedPolicy grants privilege to owners and admins.
const DefaultPrivilegedPolicy = `"admin" in roles || "owner" in roles`

// Operation names a privileged-only engine entry point.
type Operation string

const (
	OpAdjustStock   Operation = "stock.adjust"
	OpOpname        Operation = "stock.opname"
	OpVoidPurchase  Operation = "purchase.void"
	OpEditPrice     Operation = "product.edit_price"
	OpEditSaleTotal Operation = "sale.edit_total"
)

// Authorizer evaluates the privileged policy for a user.
type Authorizer struct {
	expr string
	prg  cel.Program
}

// NewAuthorizer compiles a CEL expression over `roles` (list of string) and
// `uid` (string). The expression must evaluate to bool.
func NewAuthorizer(expr string) (*Authorizer, error) {
	if expr == "" {
		expr = DefaultPrivilegedPolicy
	}
	env, err := cel.NewEnv(
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("uid", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("policy %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program: %w", err)
	}
	return &Authorizer{expr: expr, prg: prg}, nil
}

// IsPrivileged evaluates the policy. Evaluation errors deny.
func (a *Authorizer) IsPrivileged(uid string, roles []string) bool {
	if roles == nil {
		roles = []string{}
	}
	out, _, err := a.prg.Eval(map[string]any{
		"roles": roles,
		"uid":   uid,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Expression returns the compiled policy source.
func (a *Authorizer) Expression() string {
	return a.expr
}

// RequirePrivileged is the enforcement point for privileged-only operations.
// No user → Unauthorized; user without the flag → Forbidden.
func RequirePrivileged(ctx context.Context, op Operation) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !user.Privileged {
		return apperror.NewForbidden(
			fmt.Sprintf("operation %s requires a privileged role", op),
		).WithDetail("operation", string(op))
	}
	return nil
}

// RequireUser returns an Unauthorized error when no caller is present.
func RequireUser(ctx context.Context) (*appctx.UserContext, error) {
	user := appctx.GetUser(ctx)
	if user == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return user, nil
}
