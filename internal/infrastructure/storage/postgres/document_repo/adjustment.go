package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockcore/internal/domain"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/infrastructure/storage/postgres"
)

const adjustmentsTable = "stock_adjustments"

var _ adjustment.Repository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	*BaseDocumentRepo[*adjustment.StockAdjustment]
}

// NewAdjustmentRepo creates an adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, adjustmentsTable, "stock_adjustment", func() *adjustment.StockAdjustment {
			return &adjustment.StockAdjustment{}
		}),
	}
}

// Create inserts an adjustment.
func (r *AdjustmentRepo) Create(ctx context.Context, a *adjustment.StockAdjustment) error {
	return r.create(ctx, a.OrgID, a)
}

// List returns adjustments newest first.
func (r *AdjustmentRepo) List(ctx context.Context, filter adjustment.ListFilter) (domain.ListResult[*adjustment.StockAdjustment], error) {
	q := r.baseSelect(ctx)
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": string(*filter.Kind)})
	}
	return r.list(ctx, q, filter.Page, "created_at DESC", "id DESC")
}
