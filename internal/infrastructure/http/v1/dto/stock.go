package dto

import (
	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/stockmove"
)

// MoveListQuery filters GET /stock-moves.
type MoveListQuery struct {
	ProductID  string   `form:"productId"`
	PurchaseID string   `form:"purchaseId"`
	SaleID     string   `form:"saleId"`
	Types      []string `form:"type"`
	PeriodQuery
	PageQuery
}

// Filter converts the query to a repository filter.
func (q MoveListQuery) Filter() (stockmove.Filter, error) {
	if err := q.Validate(); err != nil {
		return stockmove.Filter{}, err
	}
	f := stockmove.Filter{From: q.From, To: q.To, Page: q.Page()}

	var err error
	if f.ProductID, err = optionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.PurchaseID, err = optionalID("purchaseId", q.PurchaseID); err != nil {
		return f, err
	}
	if f.SaleID, err = optionalID("saleId", q.SaleID); err != nil {
		return f, err
	}
	for _, raw := range q.Types {
		t := stockmove.Type(raw)
		if !t.IsValid() {
			return f, apperror.NewValidation("unknown move type").WithDetail("type", raw)
		}
		f.Types = append(f.Types, t)
	}
	return f, nil
}

// AdjustmentListQuery filters GET /stock/adjustments.
type AdjustmentListQuery struct {
	ProductID string `form:"productId"`
	Kind      string `form:"kind"`
	PageQuery
}

// Filter converts the query to a repository filter.
func (q AdjustmentListQuery) Filter() (adjustment.ListFilter, error) {
	f := adjustment.ListFilter{Page: q.Page()}
	var err error
	if f.ProductID, err = optionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if q.Kind != "" {
		k := adjustment.Kind(q.Kind)
		if !k.IsValid() {
			return f, apperror.NewValidation("unknown adjustment kind").WithDetail("kind", q.Kind)
		}
		f.Kind = &k
	}
	return f, nil
}

// CogsLine is one line of a COGS preview.
type CogsLine struct {
	ProductID *id.ID `json:"productId"`
	Qty       int64  `json:"qty" binding:"min=0"`
}

// CogsRequest previews the cost of goods for a cart.
type CogsRequest struct {
	Items []CogsLine `json:"items" binding:"required,dive"`
}

// Lines converts the request to costing lines.
func (r CogsRequest) Lines() []costing.Line {
	lines := make([]costing.Line, len(r.Items))
	for i, it := range r.Items {
		lines[i] = costing.Line{ProductID: it.ProductID, Qty: it.Qty}
	}
	return lines
}

// CogsResponse is the previewed cost of goods.
type CogsResponse struct {
	Cogs types.Money `json:"cogs"`
}

func optionalID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid " + field + " format").WithDetail("field", field)
	}
	return &v, nil
}
