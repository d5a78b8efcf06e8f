// Package sale provides the Sale document: a checkout fact created atomically
// with its stock decrement. COGS and margin are frozen at creation.
package sale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	MethodQRIS PaymentMethod = "qris"
	MethodCash PaymentMethod = "tunai"
	MethodCard PaymentMethod = "kartu"
	MethodGrab PaymentMethod = "grab"
)

// IsValid checks if method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodQRIS, MethodCash, MethodCard, MethodGrab:
		return true
	}
	return false
}

// Source is the sales channel.
type Source string

const (
	SourceOffline Source = "offline"
	SourceGrab    Source = "grab"
)

// SourceFor derives the channel from the payment method.
func SourceFor(m PaymentMethod) Source {
	if m == MethodGrab {
		return SourceGrab
	}
	return SourceOffline
}

// Item is a sale line. Lines without ProductID are ad-hoc items that do not
// touch stock and carry no cost.
type Item struct {
	ProductID *id.ID      `json:"productId,omitempty"`
	Name      string      `json:"name"`
	Qty       int64       `json:"qty"`
	Price     types.Money `json:"price"`
}

// Amount returns qty*price.
func (i Item) Amount() types.Money {
	return types.Units(i.Qty).Mul(i.Price)
}

// Sale is a completed checkout.
type Sale struct {
	entity.Document

	// Number is the receipt number, e.g. S-2026-00001.
	Number string `db:"number" json:"number,omitempty"`

	Items         []Item        `db:"items" json:"items"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Source        Source        `db:"source" json:"source"`

	Total       types.Money `db:"total" json:"total"`
	Cogs        types.Money `db:"cogs" json:"cogs"`
	GrossProfit types.Money `db:"gross_profit" json:"grossProfit"`
	Margin      types.Money `db:"margin" json:"margin"`
}

// New creates a sale with total computed from lines. Costing is applied
// separately once the ledger snapshot is read.
func New(orgID id.ID, date time.Time, createdBy string, method PaymentMethod, items []Item) *Sale {
	s := &Sale{
		Document:      entity.NewDocument(orgID, date, createdBy),
		Items:         items,
		PaymentMethod: method,
		Source:        SourceFor(method),
		Cogs:          types.Zero(),
		GrossProfit:   types.Zero(),
		Margin:        types.Zero(),
	}
	s.Total = s.LinesTotal()
	return s
}

// LinesTotal sums line amounts.
func (s *Sale) LinesTotal() types.Money {
	total := types.Zero()
	for _, it := range s.Items {
		total = total.Add(it.Amount())
	}
	return total
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if !s.PaymentMethod.IsValid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(s.PaymentMethod))
	}
	if len(s.Items) == 0 {
		return apperror.NewValidation("cart is empty").WithDetail("field", "items")
	}
	for i, it := range s.Items {
		if strings.TrimSpace(it.Name) == "" {
			return apperror.NewValidation(fmt.Sprintf("line %d: name is required", i+1)).
				WithDetail("line", i+1)
		}
		if it.Qty <= 0 {
			return apperror.NewValidation(fmt.Sprintf("line %d: qty must be positive", i+1)).
				WithDetail("line", i+1).
				WithDetail("qty", it.Qty)
		}
		if it.Price.IsNegative() {
			return apperror.NewValidation(fmt.Sprintf("line %d: price must not be negative", i+1)).
				WithDetail("line", i+1)
		}
		if it.ProductID != nil && id.IsNil(*it.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: invalid product id", i+1)).
				WithDetail("line", i+1)
		}
	}
	return nil
}

// CogsLines returns the lines as seen by the costing engine.
func (s *Sale) CogsLines() []costing.Line {
	lines := make([]costing.Line, len(s.Items))
	for i, it := range s.Items {
		lines[i] = costing.Line{ProductID: it.ProductID, Qty: it.Qty}
	}
	return lines
}

// ProductIDs returns the product ids referenced by the sale (may repeat).
func (s *Sale) ProductIDs() []id.ID {
	ids := make([]id.ID, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ProductID != nil {
			ids = append(ids, *it.ProductID)
		}
	}
	return ids
}

// QtyByProduct aggregates requested quantities per product, so a product
// listed on several lines is validated against its combined demand.
func (s *Sale) QtyByProduct() map[id.ID]int64 {
	out := make(map[id.ID]int64)
	for _, it := range s.Items {
		if it.ProductID != nil {
			out[*it.ProductID] += it.Qty
		}
	}
	return out
}

// ApplyCogs freezes cost figures at creation time.
func (s *Sale) ApplyCogs(cogs types.Money) {
	s.Cogs = cogs
	s.GrossProfit, s.Margin = costing.Profit(s.Total, cogs)
}

// EditTotal replaces the total out-of-band. Stock and cogs are not touched;
// grossProfit and margin follow the new total against the frozen cogs.
func (s *Sale) EditTotal(total types.Money) error {
	if total.IsNegative() {
		return apperror.NewValidation("total must not be negative").WithDetail("field", "total")
	}
	s.Total = total
	s.GrossProfit, s.Margin = costing.Profit(s.Total, s.Cogs)
	s.Touch()
	return nil
}

// IsCash reports whether the sale moves cash into the drawer.
func (s *Sale) IsCash() bool {
	return s.PaymentMethod == MethodCash
}
