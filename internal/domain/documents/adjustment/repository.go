package adjustment

import (
	"context"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// Repository defines storage for adjustments. Adjustments are never edited.
type Repository interface {
	Create(ctx context.Context, a *StockAdjustment) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockAdjustment], error)
}

// ListFilter for adjustment history.
type ListFilter struct {
	ProductID *id.ID
	Kind      *Kind
	domain.Page
}
