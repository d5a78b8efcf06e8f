package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockcore/internal/core/apperror"
)

// SQLSTATE codes the engine reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgAdminShutdown        = "57P01"
)

// mapError converts driver errors into application errors. AppErrors and
// unknown errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperror.NewDatabase(err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == pgAdminShutdown {
		return apperror.NewDatabase(err)
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return apperror.NewConcurrentModification("transaction", pgErr.Code).WithCause(err)
	case pgUniqueViolation:
		return apperror.NewValidation("duplicate value").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		// ledger non-negativity is enforced by CHECK constraints as a backstop
		return apperror.NewInvalidState("constraint violated").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique violation of constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
