package postgres

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/numerator"
)

var _ numerator.Generator = (*Numerator)(nil)

// Numerator draws document numbers from doc_sequences.
//
// The upsert runs on the caller's transaction: the row stays locked until
// the document commits, and a rollback returns the number.
type Numerator struct {
	txManager *TxManager
}

// NewNumerator creates a numerator.
func NewNumerator(txManager *TxManager) *Numerator {
	return &Numerator{txManager: txManager}
}

// Next implements numerator.Generator.
func (n *Numerator) Next(ctx context.Context, orgID id.ID, cfg numerator.Config, period time.Time) (string, error) {
	var val int64
	err := n.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO doc_sequences (org_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (org_id, key) DO UPDATE SET current_val = doc_sequences.current_val + 1
		RETURNING current_val
	`, orgID, cfg.Key(period)).Scan(&val)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", cfg.Prefix, err)
	}
	return cfg.Format(period, val), nil
}

// SetNext makes the following Next return value+1. Used when importing
// history from another system.
func (n *Numerator) SetNext(ctx context.Context, orgID id.ID, cfg numerator.Config, period time.Time, value int64) error {
	_, err := n.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO doc_sequences (org_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, key) DO UPDATE SET current_val = $3
	`, orgID, cfg.Key(period), value)
	if err != nil {
		return fmt.Errorf("set %s number: %w", cfg.Prefix, err)
	}
	return nil
}
