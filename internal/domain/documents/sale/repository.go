package sale

import (
	"context"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// Repository defines storage for sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	Get(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate locks the sale row.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// UpdateTotals writes total, gross_profit and margin with a version check.
	UpdateTotals(ctx context.Context, s *Sale) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter for sale history.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	PaymentMethod *PaymentMethod
	domain.Page
}

// EntityName is used in NotFound errors.
const EntityName = "sale"
