// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// --- Pagination ---

// PageQuery is the limit/offset window accepted by list endpoints.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Page converts the query to a domain window.
func (q PageQuery) Page() domain.Page {
	return domain.Page{Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// PeriodQuery bounds a list by creation time. Both ends are inclusive.
type PeriodQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Validate rejects an inverted period.
func (q PeriodQuery) Validate() error {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return apperror.NewValidation("'to' must not be before 'from'")
	}
	return nil
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult maps a domain list through fn.
func FromListResult[S, T any](r domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, len(r.Items))
	for i, it := range r.Items {
		items[i] = fn(it)
	}
	return ListResponse[T]{Items: items, TotalCount: r.TotalCount, Limit: r.Limit, Offset: r.Offset}
}

// Identity is the mapping for lists returned as-is.
func Identity[T any](v T) T { return v }

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
