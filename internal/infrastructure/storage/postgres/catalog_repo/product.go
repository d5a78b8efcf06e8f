// Package catalog_repo provides the PostgreSQL product catalog: the product
// rows that carry each product's ledger triple.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/domain/product"
	"stockcore/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewProductRepo creates a product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[product.Product](),
	}
}

func (r *ProductRepo) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.selectCols...).
		From(productsTable).
		Where(squirrel.Eq{"org_id": tenant.MustOrg(ctx)})
}

// Create inserts a product together with its opening ledger.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	if !p.BelongsTo(tenant.MustOrg(ctx)) {
		return apperror.NewValidation("product belongs to another organization")
	}
	if p.Version == 0 {
		p.Version = 1
	}

	q := postgres.Builder().
		Insert(productsTable).
		SetMap(postgres.ColumnValues(p, r.selectCols))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", productsTable, mapErr(err))
	}
	return nil
}

// Get returns one product of the caller's organization.
func (r *ProductRepo) Get(ctx context.Context, productID id.ID) (*product.Product, error) {
	sql, args, err := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": productID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	p := new(product.Product)
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, product.NotFound(productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetMany reads the known products among ids without locking.
func (r *ProductRepo) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	return r.getMany(ctx, ids, false)
}

// GetForUpdate locks the known products among ids in canonical id order.
// PostgreSQL compares uuid values byte-wise, matching id.SortedUnique.
func (r *ProductRepo) GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	return r.getMany(ctx, ids, true)
}

func (r *ProductRepo) getMany(ctx context.Context, ids []id.ID, lock bool) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	ids = id.SortedUnique(ids)
	if len(ids) == 0 {
		return out, nil
	}

	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id")
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// SaveLedger writes the ledger triple with a version check.
func (r *ProductRepo) SaveLedger(ctx context.Context, p *product.Product) error {
	if err := p.Ledger().Check(p.ID); err != nil {
		return err
	}
	p.Touch()
	return r.update(ctx, p, map[string]any{
		"stock":         p.Stock,
		"stock_content": p.StockContent,
		"avg_cost":      p.AvgCost,
		"updated_at":    p.UpdatedAt,
	})
}

// UpdateDetails writes the non-ledger fields with a version check.
func (r *ProductRepo) UpdateDetails(ctx context.Context, p *product.Product) error {
	p.Touch()
	return r.update(ctx, p, map[string]any{
		"name":        p.Name,
		"category":    p.Category,
		"barcode":     p.Barcode,
		"price":       p.Price,
		"min_stock":   p.MinStock,
		"min_content": p.MinContent,
		"updated_at":  p.UpdatedAt,
	})
}

// update applies set with optimistic locking: expect p.Version, store p.Version+1.
func (r *ProductRepo) update(ctx context.Context, p *product.Product, set map[string]any) error {
	q := postgres.Builder().
		Update(productsTable).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"org_id": tenant.MustOrg(ctx)}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", productsTable, mapErr(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(product.EntityName, p.ID.String())
	}
	p.Version++
	return nil
}

// List returns products matching filter ordered by name.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	page := filter.Page.Normalize()
	result := domain.ListResult[*product.Product]{Limit: page.Limit, Offset: page.Offset}

	q := r.baseSelect(ctx)
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": "%" + s + "%"},
			squirrel.Eq{"barcode": s},
		})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.LowOnly {
		q = q.Where(squirrel.Or{
			squirrel.And{
				squirrel.Eq{"has_measure": true},
				squirrel.Gt{"min_content": 0},
				squirrel.Expr("stock_content <= min_content"),
			},
			squirrel.And{
				squirrel.Eq{"has_measure": false},
				squirrel.Gt{"min_stock": 0},
				squirrel.Expr("stock <= min_stock"),
			},
		})
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	sql, args, err := q.
		OrderBy("name ASC", "id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]*product.Product, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

// mapErr turns a unique barcode violation into a validation error.
func mapErr(err error) error {
	if postgres.IsUniqueViolation(err, "products_org_barcode_key") {
		return apperror.NewValidation("barcode already in use").
			WithDetail("field", "barcode").
			WithCause(err)
	}
	return err
}
