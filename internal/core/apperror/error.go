// Package apperror is the error vocabulary of the engine. Every rule
// violation a cashier or client can act on is an *AppError with a stable
// Code; anything else is treated as internal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// 5xx
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// 400
	CodeValidation = "VALIDATION_ERROR"

	// 422, the request is well formed but the stock says no
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInsufficientContent = "INSUFFICIENT_CONTENT"
	CodeCannotVoid          = "CANNOT_VOID"

	// 409
	CodeInvalidState           = "INVALID_STATE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeLockNotObtained        = "LOCK_NOT_OBTAINED"
	CodeIdempotencyConflict    = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyMismatch    = "IDEMPOTENCY_MISMATCH"

	// 401, 403
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// 404
	CodeNotFound = "NOT_FOUND"
)

// AppError carries a stable Code, a message fit for the till screen and
// structured Details (product, requested and available quantities). Err is
// the internal cause and is never rendered.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewProductNotFound is the checkout/intake flavour of NotFound: it names the
// product line the caller sent, since the id alone is meaningless at a till.
func NewProductNotFound(name string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("product %s not found", name),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": "product", "id": id, "name": name},
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(product string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("insufficient stock for %s", product),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product":   product,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientContent creates a content shortage error for measured goods.
// Quantities are passed as strings to keep decimal precision in the payload.
func NewInsufficientContent(product, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientContent,
		Message:    fmt.Sprintf("insufficient content for %s", product),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product":   product,
			"requested": requested,
			"available": available,
		},
	}
}

// NewCannotVoid is returned when a purchase cannot be reversed.
func NewCannotVoid(message string) *AppError {
	return &AppError{
		Code:       CodeCannotVoid,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidState is returned when a write would break a ledger invariant.
func NewInvalidState(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewLockNotObtained is returned when a product lock is held elsewhere.
func NewLockNotObtained(key string) *AppError {
	return &AppError{
		Code:       CodeLockNotObtained,
		Message:    "Stock is being changed by another terminal. Please retry.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"key": key},
	}
}

// NewIdempotencyConflict is returned while the first request with key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyConflict,
		Message:    "A request with this idempotency key is still being processed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"key": key},
	}
}

// NewIdempotencyMismatch is returned when a key is reused for a different request.
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyMismatch,
		Message:    "Idempotency key was already used for a different request",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"key": key},
	}
}

// NewInternal wraps err; the client only sees the generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase is returned when the database cannot be reached.
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus is 500 for anything that is not an AppError.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

func IsConcurrentModification(err error) bool {
	return Is(err, CodeConcurrentModification)
}

// Transient reports whether sending the same request again may succeed:
// a product lock held elsewhere, a lost version race, an idempotency key
// still in flight or a database hiccup.
func Transient(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeLockNotObtained, CodeConcurrentModification, CodeIdempotencyConflict, CodeDatabase:
		return true
	}
	return false
}
