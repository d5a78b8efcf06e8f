// Package product provides the Product Ledger: the single source of truth for
// per-product stock, measured content and running average cost.
package product

import (
	"context"
	"strings"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// MeasureUnit is the unit of measured content.
type MeasureUnit string

const (
	UnitML  MeasureUnit = "ml"
	UnitL   MeasureUnit = "l"
	UnitG   MeasureUnit = "g"
	UnitKG  MeasureUnit = "kg"
	UnitPcs MeasureUnit = "pcs"
)

// IsValid checks if unit is known.
func (u MeasureUnit) IsValid() bool {
	switch u {
	case UnitML, UnitL, UnitG, UnitKG, UnitPcs:
		return true
	}
	return false
}

// Product is a sellable item together with its ledger state.
//
// Stock, StockContent and AvgCost form the ledger triple. They are written
// only by the inventory mutator, always together and inside one transaction.
type Product struct {
	entity.BaseEntity

	Name     string      `db:"name" json:"name"`
	Category string      `db:"category" json:"category"`
	Barcode  *string     `db:"barcode" json:"barcode,omitempty"`
	Price    types.Money `db:"price" json:"price"`

	Stock   int64       `db:"stock" json:"stock"`
	AvgCost types.Money `db:"avg_cost" json:"avgCost"`

	HasMeasure     bool        `db:"has_measure" json:"hasMeasure"`
	MeasureUnit    MeasureUnit `db:"measure_unit" json:"measureUnit,omitempty"`
	ContentPerItem types.Money `db:"content_per_item" json:"contentPerItem"`
	StockContent   types.Money `db:"stock_content" json:"stockContent"`

	MinStock   int64       `db:"min_stock" json:"minStock"`
	MinContent types.Money `db:"min_content" json:"minContent"`
}

// NewProduct creates an empty-ledger product for orgID.
func NewProduct(orgID id.ID, name, category string, price types.Money) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(orgID),
		Name:       strings.TrimSpace(name),
		Category:   strings.TrimSpace(category),
		Price:      price,
		AvgCost:    types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.ValidateOrg(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(p.Category) == "" {
		return apperror.NewValidation("category is required").WithDetail("field", "category")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if p.MinStock < 0 {
		return apperror.NewValidation("minStock must not be negative").WithDetail("field", "minStock")
	}
	if p.HasMeasure {
		if !p.MeasureUnit.IsValid() {
			return apperror.NewValidation("unknown measure unit").
				WithDetail("field", "measureUnit").
				WithDetail("value", string(p.MeasureUnit))
		}
		if !p.ContentPerItem.IsPositive() {
			return apperror.NewValidation("contentPerItem must be positive for measured goods").
				WithDetail("field", "contentPerItem")
		}
		if p.MinContent.IsNegative() {
			return apperror.NewValidation("minContent must not be negative").WithDetail("field", "minContent")
		}
	}
	return p.Ledger().Check(p.ID)
}

// Normalize clears measured fields on non-measured products.
func (p *Product) Normalize() {
	if p.HasMeasure {
		return
	}
	p.MeasureUnit = ""
	p.ContentPerItem = types.Zero()
	p.StockContent = types.Zero()
	p.MinContent = types.Zero()
}

// ContentFor returns the measured content represented by qty whole items.
// Non-measured products have no content.
func (p *Product) ContentFor(qty int64) types.Money {
	if !p.HasMeasure {
		return types.Zero()
	}
	return types.Units(qty).Mul(p.ContentPerItem)
}

// IsLowStock reports whether the product is at or below its reorder threshold.
// Measured goods are judged by content, others by unit count; a zero
// threshold disables the check.
func (p *Product) IsLowStock() bool {
	if p.HasMeasure {
		return p.MinContent.IsPositive() && p.StockContent.LessThanOrEqual(p.MinContent)
	}
	return p.MinStock > 0 && p.Stock <= p.MinStock
}

// DisplayName is used in error messages for cashiers.
func (p *Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID.String()
}

// --- Ledger triple ---

// Ledger is the stock/content/cost triple of a product.
type Ledger struct {
	Stock        int64       `json:"stock"`
	StockContent types.Money `json:"stockContent"`
	AvgCost      types.Money `json:"avgCost"`
}

// Check verifies the non-negativity invariants.
func (l Ledger) Check(productID id.ID) error {
	if l.Stock < 0 {
		return apperror.NewInvalidState("stock would become negative").
			WithDetail("product_id", productID.String()).
			WithDetail("stock", l.Stock)
	}
	if l.StockContent.IsNegative() {
		return apperror.NewInvalidState("stock content would become negative").
			WithDetail("product_id", productID.String()).
			WithDetail("stock_content", l.StockContent.String())
	}
	if l.AvgCost.IsNegative() {
		return apperror.NewInvalidState("average cost would become negative").
			WithDetail("product_id", productID.String())
	}
	return nil
}

// Ledger returns the current triple.
func (p *Product) Ledger() Ledger {
	return Ledger{
		Stock:        p.Stock,
		StockContent: p.StockContent,
		AvgCost:      p.AvgCost,
	}
}

// SetLedger replaces the triple after checking invariants.
// The product is left untouched when the check fails.
func (p *Product) SetLedger(l Ledger) error {
	if err := l.Check(p.ID); err != nil {
		return err
	}
	p.Stock = l.Stock
	p.StockContent = l.StockContent
	p.AvgCost = l.AvgCost
	return nil
}

// Details are the fields editable outside the mutator.
type Details struct {
	Name       *string
	Category   *string
	Barcode    *string
	Price      *types.Money
	MinStock   *int64
	MinContent *types.Money
}

// ChangesPrice reports whether d edits the selling price.
func (d Details) ChangesPrice(p *Product) bool {
	return d.Price != nil && !d.Price.Equal(p.Price)
}

// Apply copies the set fields onto p.
func (d Details) Apply(p *Product) {
	if d.Name != nil {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if d.Category != nil {
		p.Category = strings.TrimSpace(*d.Category)
	}
	if d.Barcode != nil {
		b := strings.TrimSpace(*d.Barcode)
		if b == "" {
			p.Barcode = nil
		} else {
			p.Barcode = &b
		}
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	if d.MinStock != nil {
		p.MinStock = *d.MinStock
	}
	if d.MinContent != nil && p.HasMeasure {
		p.MinContent = *d.MinContent
	}
}
