package dto

import (
	"stockcore/internal/core/apperror"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/inventory"
)

// SaleListQuery filters GET /sales.
type SaleListQuery struct {
	PaymentMethod string `form:"paymentMethod"`
	PeriodQuery
	PageQuery
}

// Filter converts the query to a repository filter.
func (q SaleListQuery) Filter() (sale.ListFilter, error) {
	if err := q.Validate(); err != nil {
		return sale.ListFilter{}, err
	}
	f := sale.ListFilter{From: q.From, To: q.To, Page: q.Page()}
	if q.PaymentMethod != "" {
		m := sale.PaymentMethod(q.PaymentMethod)
		if !m.IsValid() {
			return f, apperror.NewValidation("unknown payment method").WithDetail("paymentMethod", q.PaymentMethod)
		}
		f.PaymentMethod = &m
	}
	return f, nil
}

// EditSaleTotalRequest overrides a sale's total.
type EditSaleTotalRequest struct {
	Total types.Money `json:"total"`
}

// PurchaseListQuery filters GET /purchases.
type PurchaseListQuery struct {
	Kind          string `form:"kind"`
	IncludeVoided bool   `form:"includeVoided"`
	PeriodQuery
	PageQuery
}

// Filter converts the query to a repository filter.
func (q PurchaseListQuery) Filter() (purchase.ListFilter, error) {
	if err := q.Validate(); err != nil {
		return purchase.ListFilter{}, err
	}
	f := purchase.ListFilter{IncludeVoided: q.IncludeVoided, From: q.From, To: q.To, Page: q.Page()}
	switch k := purchase.Kind(q.Kind); k {
	case "":
	case purchase.KindInventory, purchase.KindOther:
		f.Kind = &k
	default:
		return f, apperror.NewValidation("unknown purchase kind").WithDetail("kind", q.Kind)
	}
	return f, nil
}

// CreatePurchaseRequest records either an inventory intake (items) or an
// other purchase (itemsOther), selected by kind.
type CreatePurchaseRequest struct {
	Kind string `json:"kind" binding:"omitempty,oneof=inventory other"`
	inventory.PurchaseCommand
	ItemsOther []inventory.OtherPurchaseLine `json:"itemsOther"`
}

// IsOther reports whether the request records an other purchase.
func (r CreatePurchaseRequest) IsOther() bool {
	return purchase.Kind(r.Kind) == purchase.KindOther
}

// OtherCommand converts the request to an other-purchase command.
func (r CreatePurchaseRequest) OtherCommand() inventory.OtherPurchaseCommand {
	return inventory.OtherPurchaseCommand{
		Date:     r.Date,
		Supplier: r.Supplier,
		Method:   r.Method,
		Items:    r.ItemsOther,
	}
}
