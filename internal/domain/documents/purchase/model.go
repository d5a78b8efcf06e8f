// Package purchase provides the Purchase document. Inventory purchases feed
// stock and average cost; "other" purchases are purely financial.
//
// Lifecycle: active -> voided (terminal). Voiding twice is a no-op.
package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// Kind separates stock intake from miscellaneous spending.
type Kind string

const (
	KindInventory Kind = "inventory"
	KindOther     Kind = "other"
)

// DefaultSupplier is used when no supplier name is given.
const DefaultSupplier = "Tanpa Pemasok"

// MethodCash is the default payment method.
const MethodCash = "tunai"

// Item is an inventory purchase line.
type Item struct {
	ProductID id.ID       `json:"productId"`
	Name      string      `json:"name"`
	Qty       int64       `json:"qty"`
	UnitCost  types.Money `json:"unitCost"`
}

// Amount returns qty*unitCost.
func (i Item) Amount() types.Money {
	return types.Units(i.Qty).Mul(i.UnitCost)
}

// OtherItem is a non-stock purchase line.
type OtherItem struct {
	Name   string      `json:"name"`
	Amount types.Money `json:"amount"`
}

// Purchase is a supplier purchase.
type Purchase struct {
	entity.Document

	Number string `db:"number" json:"number,omitempty"`

	Supplier   string      `db:"supplier" json:"supplier"`
	Method     string      `db:"method" json:"method"`
	Kind       Kind        `db:"kind" json:"kind"`
	Items      []Item      `db:"items" json:"items"`
	ItemsOther []OtherItem `db:"items_other" json:"itemsOther"`
	Total      types.Money `db:"total" json:"total"`

	VoidedAt    *time.Time `db:"voided_at" json:"voidedAt,omitempty"`
	VoidedByUID *string    `db:"voided_by_uid" json:"voidedByUid,omitempty"`
}

func newPurchase(orgID id.ID, date time.Time, createdBy, supplier, method string, kind Kind) *Purchase {
	supplier = strings.TrimSpace(supplier)
	if supplier == "" {
		supplier = DefaultSupplier
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = MethodCash
	}
	return &Purchase{
		Document:   entity.NewDocument(orgID, date, createdBy),
		Supplier:   supplier,
		Method:     method,
		Kind:       kind,
		Items:      []Item{},
		ItemsOther: []OtherItem{},
		Total:      types.Zero(),
	}
}

// NewInventory creates an inventory purchase; total = Σ qty*unitCost.
func NewInventory(orgID id.ID, date time.Time, createdBy, supplier, method string, items []Item) *Purchase {
	p := newPurchase(orgID, date, createdBy, supplier, method, KindInventory)
	p.Items = items
	for _, it := range items {
		p.Total = p.Total.Add(it.Amount())
	}
	return p
}

// NewOther creates a misc purchase; total = Σ amount.
func NewOther(orgID id.ID, date time.Time, createdBy, supplier, method string, items []OtherItem) *Purchase {
	p := newPurchase(orgID, date, createdBy, supplier, method, KindOther)
	p.ItemsOther = items
	for _, it := range items {
		p.Total = p.Total.Add(it.Amount)
	}
	return p
}

// EffectiveKind falls back to the line shape for legacy rows with no kind.
func (p *Purchase) EffectiveKind() Kind {
	if p.Kind == KindInventory || p.Kind == KindOther {
		return p.Kind
	}
	if len(p.Items) > 0 {
		return KindInventory
	}
	return KindOther
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	switch p.Kind {
	case KindInventory:
		if len(p.Items) == 0 {
			return apperror.NewValidation("purchase has no items").WithDetail("field", "items")
		}
		for i, it := range p.Items {
			if id.IsNil(it.ProductID) {
				return apperror.NewValidation(fmt.Sprintf("line %d: product is required", i+1)).
					WithDetail("line", i+1)
			}
			if it.Qty <= 0 {
				return apperror.NewValidation(fmt.Sprintf("line %d: qty must be positive", i+1)).
					WithDetail("line", i+1).
					WithDetail("qty", it.Qty)
			}
			if it.UnitCost.IsNegative() {
				return apperror.NewValidation(fmt.Sprintf("line %d: unit cost must not be negative", i+1)).
					WithDetail("line", i+1)
			}
		}
	case KindOther:
		if len(p.ItemsOther) == 0 {
			return apperror.NewValidation("purchase has no items").WithDetail("field", "itemsOther")
		}
		for i, it := range p.ItemsOther {
			if strings.TrimSpace(it.Name) == "" {
				return apperror.NewValidation(fmt.Sprintf("line %d: name is required", i+1)).
					WithDetail("line", i+1)
			}
			if !it.Amount.IsPositive() {
				return apperror.NewValidation(fmt.Sprintf("line %d: amount must be positive", i+1)).
					WithDetail("line", i+1)
			}
		}
	default:
		return apperror.NewValidation("unknown purchase kind").WithDetail("kind", string(p.Kind))
	}
	return nil
}

// IsVoided reports whether the purchase was voided.
func (p *Purchase) IsVoided() bool {
	return p.VoidedAt != nil
}

// MarkVoided moves the purchase to the terminal state.
// It returns false when the purchase was already voided.
func (p *Purchase) MarkVoided(byUID string, at time.Time) bool {
	if p.IsVoided() {
		return false
	}
	at = at.UTC()
	p.VoidedAt = &at
	if byUID != "" {
		p.VoidedByUID = &byUID
	}
	p.Touch()
	return true
}

// ProductIDs returns the product ids of inventory lines (may repeat).
func (p *Purchase) ProductIDs() []id.ID {
	ids := make([]id.ID, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// IsCash reports whether the purchase is paid from the drawer.
func (p *Purchase) IsCash() bool {
	return p.Method == MethodCash
}

// LineCount returns the number of lines for the purchase's kind.
func (p *Purchase) LineCount() int {
	if p.EffectiveKind() == KindInventory {
		return len(p.Items)
	}
	return len(p.ItemsOther)
}
