package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockcore/internal/core/id"
	"stockcore/internal/domain/cashledger"
)

const cashMovementsTable = "cash_movements"

var (
	_ cashledger.Recorder = (*CashRecorder)(nil)
	_ cashledger.Lister   = (*CashRecorder)(nil)
)

// CashRecorder stores cash drawer movements.
type CashRecorder struct {
	txManager *TxManager
	cols      []string
}

// NewCashRecorder creates a cash recorder.
func NewCashRecorder(txManager *TxManager) *CashRecorder {
	return &CashRecorder{
		txManager: txManager,
		cols:      ExtractDBColumns[cashledger.Movement](),
	}
}

// Record implements cashledger.Recorder.
func (r *CashRecorder) Record(ctx context.Context, m cashledger.Movement) error {
	sql, args, err := Builder().
		Insert(cashMovementsTable).
		SetMap(ColumnValues(m, r.cols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash movement: %w", err)
	}
	return nil
}

// ForReference implements cashledger.Lister.
func (r *CashRecorder) ForReference(ctx context.Context, orgID id.ID, refEntity string, refID id.ID) ([]cashledger.Movement, error) {
	sql, args, err := Builder().
		Select(r.cols...).
		From(cashMovementsTable).
		Where(squirrel.Eq{"org_id": orgID, "ref_entity": refEntity, "ref_id": refID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []cashledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select cash movements: %w", err)
	}
	return out, nil
}
