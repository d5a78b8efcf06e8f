package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/infrastructure/storage/postgres"
)

const purchasesTable = "purchases"

var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

// NewPurchaseRepo creates a purchase repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, purchasesTable, purchase.EntityName, func() *purchase.Purchase {
			return &purchase.Purchase{}
		}),
	}
}

// Create inserts a purchase.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return r.create(ctx, p.OrgID, p)
}

// Get returns a purchase.
func (r *PurchaseRepo) Get(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.get(ctx, purchaseID, false)
}

// GetForUpdate locks and returns a purchase.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.get(ctx, purchaseID, true)
}

// MarkVoided persists the terminal state.
func (r *PurchaseRepo) MarkVoided(ctx context.Context, p *purchase.Purchase) error {
	err := r.updateVersioned(ctx, p.ID, p.Version, map[string]any{
		"voided_at":     p.VoidedAt,
		"voided_by_uid": p.VoidedByUID,
		"updated_at":    p.UpdatedAt,
	})
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

// List returns purchases newest first. Legacy rows without a kind are
// classified by their line shape, as EffectiveKind does.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	q := r.baseSelect(ctx)
	if filter.Kind != nil {
		switch *filter.Kind {
		case purchase.KindInventory:
			q = q.Where(squirrel.Or{
				squirrel.Eq{"kind": string(purchase.KindInventory)},
				squirrel.And{
					squirrel.Eq{"kind": ""},
					squirrel.Expr("jsonb_array_length(items) > 0"),
				},
			})
		default:
			q = q.Where(squirrel.Or{
				squirrel.Eq{"kind": string(*filter.Kind)},
				squirrel.And{
					squirrel.Eq{"kind": ""},
					squirrel.Expr("jsonb_array_length(items) = 0"),
				},
			})
		}
	}
	if !filter.IncludeVoided {
		q = q.Where(squirrel.Eq{"voided_at": nil})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}
	return r.list(ctx, q, filter.Page, "created_at DESC", "id DESC")
}
