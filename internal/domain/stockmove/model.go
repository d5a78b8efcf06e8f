// Package stockmove provides the Stock Movement Log: an append-only record of
// every stock-affecting event with full before/after snapshots, so the log
// can be audited without replaying earlier moves.
package stockmove

import (
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// Type classifies a move.
type Type string

const (
	TypePurchase     Type = "purchase"
	TypePurchaseVoid Type = "purchase_void"
	TypeAdjustIn     Type = "adjust_in"
	TypeAdjustOut    Type = "adjust_out"
	TypeOpname       Type = "opname"
	TypeAdjustment   Type = "adjustment"
	TypeSale         Type = "sale"
)

// IsValid checks if type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypePurchase, TypePurchaseVoid, TypeAdjustIn, TypeAdjustOut,
		TypeOpname, TypeAdjustment, TypeSale:
		return true
	}
	return false
}

// Move is one immutable log entry.
// Optional snapshot fields are nil when the event does not touch them.
type Move struct {
	ID        id.ID `db:"id" json:"id"`
	OrgID     id.ID `db:"org_id" json:"orgId"`
	ProductID id.ID `db:"product_id" json:"productId"`
	Type      Type  `db:"type" json:"type"`

	Qty         int64 `db:"qty" json:"qty"`
	StockBefore int64 `db:"stock_before" json:"stockBefore"`
	StockAfter  int64 `db:"stock_after" json:"stockAfter"`

	AvgBefore *types.Money `db:"avg_before" json:"avgBefore,omitempty"`
	AvgAfter  *types.Money `db:"avg_after" json:"avgAfter,omitempty"`
	UnitCost  *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	MeasureUnit   *string      `db:"measure_unit" json:"measureUnit,omitempty"`
	ContentBefore *types.Money `db:"content_before" json:"contentBefore,omitempty"`
	ContentAfter  *types.Money `db:"content_after" json:"contentAfter,omitempty"`
	ContentDelta  *types.Money `db:"content_delta" json:"contentDelta,omitempty"`

	// Delta is the signed change for correction-style adjustments.
	Delta          *int64     `db:"delta" json:"delta,omitempty"`
	Reason         string     `db:"reason" json:"reason"`
	Note           *string    `db:"note" json:"note,omitempty"`
	AdjustmentDate *time.Time `db:"adjustment_date" json:"adjustmentDate,omitempty"`

	PurchaseID   *id.ID `db:"purchase_id" json:"purchaseId,omitempty"`
	SaleID       *id.ID `db:"sale_id" json:"saleId,omitempty"`
	AdjustmentID *id.ID `db:"adjustment_id" json:"adjustmentId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ByUID     string    `db:"by_uid" json:"byUid,omitempty"`

	// Seq is assigned by storage and breaks createdAt ties in insertion order.
	Seq int64 `db:"seq" json:"seq"`
}

// New starts a move for productID with the unit-stock snapshot filled in.
func New(orgID, productID id.ID, t Type, qty, stockBefore, stockAfter int64, reason, byUID string) *Move {
	return &Move{
		ID:          id.New(),
		OrgID:       orgID,
		ProductID:   productID,
		Type:        t,
		Qty:         qty,
		StockBefore: stockBefore,
		StockAfter:  stockAfter,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
		ByUID:       byUID,
	}
}

// WithCost records the average-cost snapshot and the intake unit cost.
func (m *Move) WithCost(avgBefore, avgAfter, unitCost types.Money) *Move {
	m.AvgBefore = &avgBefore
	m.AvgAfter = &avgAfter
	m.UnitCost = &unitCost
	return m
}

// WithUnitCost records the unit cost only (voids keep average cost).
func (m *Move) WithUnitCost(unitCost types.Money) *Move {
	m.UnitCost = &unitCost
	return m
}

// WithContent records the measured-content snapshot.
func (m *Move) WithContent(unit string, before, after types.Money) *Move {
	delta := after.Sub(before)
	m.MeasureUnit = &unit
	m.ContentBefore = &before
	m.ContentAfter = &after
	m.ContentDelta = &delta
	return m
}

// WithCorrection records the signed delta, note and business date of a correction.
func (m *Move) WithCorrection(delta int64, note string, date time.Time) *Move {
	m.Delta = &delta
	if note != "" {
		m.Note = &note
	}
	if !date.IsZero() {
		d := date.UTC()
		m.AdjustmentDate = &d
	}
	return m
}

// Validate checks the entry is self-consistent before it is appended.
func (m *Move) Validate() error {
	if id.IsNil(m.OrgID) {
		return apperror.NewValidation("stock move: organization is required")
	}
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("stock move: product is required")
	}
	if !m.Type.IsValid() {
		return apperror.NewValidation("stock move: unknown type").WithDetail("type", string(m.Type))
	}
	if m.Qty < 0 {
		return apperror.NewValidation("stock move: qty must not be negative")
	}
	if m.StockBefore < 0 || m.StockAfter < 0 {
		return apperror.NewInvalidState("stock move: negative stock snapshot").
			WithDetail("product_id", m.ProductID.String())
	}
	if m.ContentAfter != nil && m.ContentAfter.IsNegative() {
		return apperror.NewInvalidState("stock move: negative content snapshot").
			WithDetail("product_id", m.ProductID.String())
	}
	return nil
}
