package purchase

import (
	"context"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
)

// Repository defines storage for purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// GetForUpdate locks the purchase row (void path).
	GetForUpdate(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// MarkVoided persists voided_at/voided_by_uid with a version check.
	MarkVoided(ctx context.Context, p *Purchase) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Purchase], error)
}

// ListFilter for purchase history.
type ListFilter struct {
	Kind          *Kind
	IncludeVoided bool
	From          *time.Time
	To            *time.Time
	domain.Page
}

// EntityName is used in NotFound errors.
const EntityName = "purchase"
