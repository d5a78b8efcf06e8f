// Package cashledger defines the cash drawer collaborator. The engine's
// callers report cash-method sales and purchases to it after commit; its
// failures never roll back stock.
package cashledger

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
)

// Direction of cash flow.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Movement is one cash drawer entry.
type Movement struct {
	ID        id.ID       `db:"id" json:"id"`
	OrgID     id.ID       `db:"org_id" json:"orgId"`
	Direction Direction   `db:"direction" json:"direction"`
	Amount    types.Money `db:"amount" json:"amount"`
	Note      string      `db:"note" json:"note"`
	RefEntity string      `db:"ref_entity" json:"refEntity"`
	RefID     id.ID       `db:"ref_id" json:"refId"`
	ByUID     string      `db:"by_uid" json:"byUid,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// Recorder stores cash movements.
type Recorder interface {
	Record(ctx context.Context, m Movement) error
}

// Lister reads the movements recorded for one document.
type Lister interface {
	ForReference(ctx context.Context, orgID id.ID, refEntity string, refID id.ID) ([]Movement, error)
}

// ForSale returns the cash-in movement for a cash sale, or false.
func ForSale(s *sale.Sale) (Movement, bool) {
	if !s.IsCash() || !s.Total.IsPositive() {
		return Movement{}, false
	}
	return Movement{
		ID:        id.New(),
		OrgID:     s.OrgID,
		Direction: DirectionIn,
		Amount:    s.Total,
		Note:      "Penjualan tunai",
		RefEntity: "sale",
		RefID:     s.ID,
		ByUID:     s.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}, true
}

// ForPurchase returns the cash-out movement for a cash purchase, or false.
func ForPurchase(p *purchase.Purchase) (Movement, bool) {
	if !p.IsCash() || !p.Total.IsPositive() {
		return Movement{}, false
	}
	note := fmt.Sprintf("Pembelian lainnya dari %s", p.Supplier)
	if p.EffectiveKind() == purchase.KindInventory {
		note = fmt.Sprintf("Pembelian bahan baku dari %s", p.Supplier)
	}
	return Movement{
		ID:        id.New(),
		OrgID:     p.OrgID,
		Direction: DirectionOut,
		Amount:    p.Total,
		Note:      note,
		RefEntity: "purchase",
		RefID:     p.ID,
		ByUID:     p.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}, true
}

// SaleHook adapts a Recorder into an after-create hook for sales.
func SaleHook(r Recorder) func(ctx context.Context, s *sale.Sale) error {
	return func(ctx context.Context, s *sale.Sale) error {
		m, ok := ForSale(s)
		if !ok {
			return nil
		}
		return r.Record(ctx, m)
	}
}

// PurchaseHook adapts a Recorder into an after-create hook for purchases.
func PurchaseHook(r Recorder) func(ctx context.Context, p *purchase.Purchase) error {
	return func(ctx context.Context, p *purchase.Purchase) error {
		m, ok := ForPurchase(p)
		if !ok {
			return nil
		}
		return r.Record(ctx, m)
	}
}
