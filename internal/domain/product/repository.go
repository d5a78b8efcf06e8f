package product

import (
	"context"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// Repository defines storage for the Product Ledger.
// Every method is scoped to the organization in ctx.
type Repository interface {
	// Create inserts a new product including its opening ledger.
	Create(ctx context.Context, p *Product) error

	// Get returns a product or NotFound.
	Get(ctx context.Context, productID id.ID) (*Product, error)

	// GetMany returns the known products among ids, read in the current
	// transaction's snapshot without locking. Unknown ids are absent.
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// GetForUpdate locks and returns the known products among ids.
	// Rows are locked in canonical id order (id.SortedUnique).
	// Unknown ids are absent from the result.
	GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// SaveLedger writes stock, stock_content and avg_cost together.
	// The stored version must equal p.Version; on success p.Version is
	// incremented. Mismatch yields ConcurrentModification.
	SaveLedger(ctx context.Context, p *Product) error

	// UpdateDetails writes the non-ledger fields with the same version check.
	UpdateDetails(ctx context.Context, p *Product) error

	// List returns products matching the filter, ordered by name.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)
}

// ListFilter for product listing.
type ListFilter struct {
	Search   string
	Category string
	LowOnly  bool
	domain.Page
}
