package stockmove

import (
	"context"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// Repository is append-only: there is no update or delete.
type Repository interface {
	// Append writes moves in slice order within the caller's transaction.
	Append(ctx context.Context, moves ...*Move) error

	// List returns moves ordered by (created_at, seq) ascending.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Move], error)
}

// Filter for movement history.
type Filter struct {
	ProductID  *id.ID
	PurchaseID *id.ID
	SaleID     *id.ID
	Types      []Type
	From       *time.Time
	To         *time.Time
	domain.Page
}
