// Package register_repo provides the PostgreSQL stock movement register.
// Rows are only ever inserted; the table has no update or delete path.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/domain/stockmove"
	"stockcore/internal/infrastructure/storage/postgres"
)

const stockMovesTable = "stock_moves"

var _ stockmove.Repository = (*MoveRepo)(nil)

// MoveRepo implements stockmove.Repository.
type MoveRepo struct {
	txm        *postgres.TxManager
	selectCols []string
	// insertCols omits seq, which the database assigns.
	insertCols []string
}

// NewMoveRepo creates a stock move repository.
func NewMoveRepo(txm *postgres.TxManager) *MoveRepo {
	cols := postgres.ExtractDBColumns[stockmove.Move]()
	return &MoveRepo{
		txm:        txm,
		selectCols: cols,
		insertCols: postgres.Without(cols, "seq"),
	}
}

// Append inserts moves in slice order. Inside a transaction the COPY
// protocol is used; seq follows insertion order either way.
func (r *MoveRepo) Append(ctx context.Context, moves ...*stockmove.Move) error {
	if len(moves) == 0 {
		return nil
	}
	orgID := tenant.MustOrg(ctx)
	for _, m := range moves {
		if m.OrgID != orgID {
			return fmt.Errorf("stock move %s: organization mismatch", m.ID)
		}
		if err := m.Validate(); err != nil {
			return err
		}
	}

	if r.txm.GetTx(ctx) != nil {
		if _, err := postgres.CopyRecords(ctx, r.txm, stockMovesTable, r.insertCols, moves); err != nil {
			return fmt.Errorf("copy stock moves: %w", err)
		}
		return nil
	}

	q := postgres.Builder().Insert(stockMovesTable).Columns(r.insertCols...)
	for _, m := range moves {
		values := postgres.ColumnValues(m, r.insertCols)
		row := make([]any, len(r.insertCols))
		for i, c := range r.insertCols {
			row[i] = values[c]
		}
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock moves: %w", err)
	}
	return nil
}

// List returns moves ordered by (created_at, seq).
func (r *MoveRepo) List(ctx context.Context, filter stockmove.Filter) (domain.ListResult[*stockmove.Move], error) {
	page := filter.Page.Normalize()
	result := domain.ListResult[*stockmove.Move]{Limit: page.Limit, Offset: page.Offset}

	q := postgres.Builder().
		Select(r.selectCols...).
		From(stockMovesTable).
		Where(squirrel.Eq{"org_id": tenant.MustOrg(ctx)})

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.PurchaseID != nil {
		q = q.Where(squirrel.Eq{"purchase_id": *filter.PurchaseID})
	}
	if filter.SaleID != nil {
		q = q.Where(squirrel.Eq{"sale_id": *filter.SaleID})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		q = q.Where(squirrel.Eq{"type": types})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count stock moves: %w", err)
	}

	sql, args, err := q.
		OrderBy("created_at ASC", "seq ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]*stockmove.Move, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list stock moves: %w", err)
	}
	return result, nil
}
