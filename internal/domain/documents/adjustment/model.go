// Package adjustment provides the StockAdjustment document: the record of a
// manual stock movement, correction or physical recount (opname).
package adjustment

import (
	"context"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// Kind of adjustment.
type Kind string

const (
	// KindMovement is a signed delta logged as adjust_in / adjust_out.
	KindMovement Kind = "movement"
	// KindCorrection is a signed delta logged as "adjustment" with note and date.
	KindCorrection Kind = "correction"
	// KindOpname sets an absolute counted value.
	KindOpname Kind = "opname"
)

// IsValid checks if kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindMovement, KindCorrection, KindOpname:
		return true
	}
	return false
}

// DefaultCorrectionReason is used for corrections without a reason.
const DefaultCorrectionReason = "Koreksi"

// DefaultOpnameReason is used for recounts without a reason.
const DefaultOpnameReason = "Opname"

// StockAdjustment records one manual ledger change.
type StockAdjustment struct {
	entity.Document

	ProductID id.ID   `db:"product_id" json:"productId"`
	Kind      Kind    `db:"kind" json:"kind"`
	Delta     int64   `db:"delta" json:"delta"`
	Before    int64   `db:"stock_before" json:"stockBefore"`
	After     int64   `db:"stock_after" json:"stockAfter"`
	Reason    string  `db:"reason" json:"reason"`
	Note      *string `db:"note" json:"note,omitempty"`

	ContentBefore *types.Money `db:"content_before" json:"contentBefore,omitempty"`
	ContentAfter  *types.Money `db:"content_after" json:"contentAfter,omitempty"`
}

// New creates an adjustment document dated date.
func New(orgID id.ID, date time.Time, createdBy string, productID id.ID, kind Kind, reason, note string) *StockAdjustment {
	a := &StockAdjustment{
		Document:  entity.NewDocument(orgID, date, createdBy),
		ProductID: productID,
		Kind:      kind,
		Reason:    reason,
	}
	if note != "" {
		a.Note = &note
	}
	return a
}

// Record fills in the before/after unit counts.
func (a *StockAdjustment) Record(before, after int64) {
	a.Before = before
	a.After = after
	a.Delta = after - before
}

// RecordContent fills in the before/after content of measured goods.
func (a *StockAdjustment) RecordContent(before, after types.Money) {
	a.ContentBefore = &before
	a.ContentAfter = &after
}

// Validate implements entity.Validatable.
func (a *StockAdjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(a.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if !a.Kind.IsValid() {
		return apperror.NewValidation("unknown adjustment kind").WithDetail("kind", string(a.Kind))
	}
	if a.After < 0 {
		return apperror.NewInvalidState("stock must not be negative").
			WithDetail("product_id", a.ProductID.String())
	}
	return nil
}
