package inventory

import (
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/product"
)

// CheckoutLine is one cart line. ProductID is nil for ad-hoc items.
type CheckoutLine struct {
	ProductID *id.ID      `json:"productId"`
	Name      string      `json:"name" validate:"required,max=200"`
	Qty       int64       `json:"qty" validate:"gt=0"`
	Price     types.Money `json:"price"`
}

// CheckoutCommand is a cart submitted at the till.
type CheckoutCommand struct {
	Date          time.Time          `json:"date"`
	PaymentMethod sale.PaymentMethod `json:"paymentMethod" validate:"required,oneof=qris tunai kartu grab"`
	Items         []CheckoutLine     `json:"items" validate:"required,min=1,dive"`
}

func (c CheckoutCommand) saleItems() []sale.Item {
	items := make([]sale.Item, len(c.Items))
	for i, l := range c.Items {
		items[i] = sale.Item{ProductID: l.ProductID, Name: l.Name, Qty: l.Qty, Price: l.Price}
	}
	return items
}

// PurchaseLine is one inventory purchase line.
type PurchaseLine struct {
	ProductID id.ID       `json:"productId" validate:"required"`
	Name      string      `json:"name" validate:"max=200"`
	Qty       int64       `json:"qty" validate:"gt=0"`
	UnitCost  types.Money `json:"unitCost"`
}

// PurchaseCommand receives stock from a supplier.
type PurchaseCommand struct {
	Date     time.Time      `json:"date"`
	Supplier string         `json:"supplier" validate:"max=200"`
	Method   string         `json:"method" validate:"max=50"`
	Items    []PurchaseLine `json:"items" validate:"required,min=1,dive"`
}

func (c PurchaseCommand) purchaseItems() []purchase.Item {
	items := make([]purchase.Item, len(c.Items))
	for i, l := range c.Items {
		items[i] = purchase.Item{ProductID: l.ProductID, Name: l.Name, Qty: l.Qty, UnitCost: l.UnitCost}
	}
	return items
}

// OtherPurchaseLine is a non-stock expense line.
type OtherPurchaseLine struct {
	Name   string      `json:"name" validate:"required,max=200"`
	Amount types.Money `json:"amount"`
}

// OtherPurchaseCommand records a purchase that does not touch stock.
type OtherPurchaseCommand struct {
	Date     time.Time           `json:"date"`
	Supplier string              `json:"supplier" validate:"max=200"`
	Method   string              `json:"method" validate:"max=50"`
	Items    []OtherPurchaseLine `json:"itemsOther" validate:"required,min=1,dive"`
}

func (c OtherPurchaseCommand) otherItems() []purchase.OtherItem {
	items := make([]purchase.OtherItem, len(c.Items))
	for i, l := range c.Items {
		items[i] = purchase.OtherItem{Name: l.Name, Amount: l.Amount}
	}
	return items
}

// AdjustCommand applies a signed delta to a product's stock.
type AdjustCommand struct {
	ProductID id.ID           `json:"productId" validate:"required"`
	Kind      adjustment.Kind `json:"kind" validate:"required,oneof=movement correction"`
	Delta     int64           `json:"delta" validate:"ne=0"`
	Reason    string          `json:"reason" validate:"max=200"`
	Note      string          `json:"note" validate:"max=1000"`
	Date      time.Time       `json:"date"`
}

// OpnameCommand sets a product's stock to a counted value.
// TargetContent recounts measured content as well.
type OpnameCommand struct {
	ProductID     id.ID        `json:"productId" validate:"required"`
	Target        int64        `json:"target" validate:"gte=0"`
	TargetContent *types.Money `json:"targetContent"`
	Reason        string       `json:"reason" validate:"max=200"`
	Date          time.Time    `json:"date"`
}

// CreateProductCommand registers a product with an optional opening balance.
type CreateProductCommand struct {
	Name           string              `json:"name" validate:"required,max=200"`
	Category       string              `json:"category" validate:"required,max=100"`
	Barcode        string              `json:"barcode" validate:"max=64"`
	Price          types.Money         `json:"price"`
	HasMeasure     bool                `json:"hasMeasure"`
	MeasureUnit    product.MeasureUnit `json:"measureUnit" validate:"omitempty,oneof=ml l g kg pcs"`
	ContentPerItem types.Money         `json:"contentPerItem"`
	MinStock       int64               `json:"minStock" validate:"gte=0"`
	MinContent     types.Money         `json:"minContent"`

	OpeningStock   int64       `json:"openingStock" validate:"gte=0"`
	OpeningContent types.Money `json:"openingContent"`
	OpeningCost    types.Money `json:"openingCost"`
}

// VoidResult reports the outcome of a void.
// AlreadyVoided is the informational no-op signal; nothing was written.
type VoidResult struct {
	Purchase      *purchase.Purchase `json:"purchase"`
	AlreadyVoided bool               `json:"alreadyVoided"`
}
