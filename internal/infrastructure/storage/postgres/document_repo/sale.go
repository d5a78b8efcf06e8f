package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockcore/internal/core/id"
	"stockcore/internal/domain"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/infrastructure/storage/postgres"
)

const salesTable = "sales"

var _ sale.Repository = (*SaleRepo)(nil)

// SaleRepo implements sale.Repository. Lines are stored as JSONB.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
}

// NewSaleRepo creates a sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, salesTable, sale.EntityName, func() *sale.Sale {
			return &sale.Sale{}
		}),
	}
}

// Create inserts a sale.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return r.create(ctx, s.OrgID, s)
}

// Get returns a sale.
func (r *SaleRepo) Get(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, false)
}

// GetForUpdate locks and returns a sale.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, true)
}

// UpdateTotals writes total, gross_profit and margin.
func (r *SaleRepo) UpdateTotals(ctx context.Context, s *sale.Sale) error {
	err := r.updateVersioned(ctx, s.ID, s.Version, map[string]any{
		"total":        s.Total,
		"gross_profit": s.GrossProfit,
		"margin":       s.Margin,
		"updated_at":   s.UpdatedAt,
	})
	if err != nil {
		return err
	}
	s.Version++
	return nil
}

// List returns sales newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	q := r.baseSelect(ctx)
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.To})
	}
	if filter.PaymentMethod != nil {
		q = q.Where(squirrel.Eq{"payment_method": string(*filter.PaymentMethod)})
	}
	return r.list(ctx, q, filter.Page, "created_at DESC", "id DESC")
}
