package dto

import (
	"stockcore/internal/core/types"
	"stockcore/internal/domain/product"
)

// ProductResponse is a product plus its low-stock flag.
type ProductResponse struct {
	*product.Product
	IsLow bool `json:"isLow"`
}

// FromProduct creates ProductResponse.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{Product: p, IsLow: p.IsLowStock()}
}

// ProductListQuery filters GET /products.
type ProductListQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	LowOnly  bool   `form:"lowOnly"`
	PageQuery
}

// Filter converts the query to a repository filter.
func (q ProductListQuery) Filter() product.ListFilter {
	return product.ListFilter{
		Search:   q.Search,
		Category: q.Category,
		LowOnly:  q.LowOnly,
		Page:     q.Page(),
	}
}

// UpdateProductRequest edits product details. Absent fields stay unchanged.
type UpdateProductRequest struct {
	Name       *string      `json:"name" binding:"omitempty,min=1,max=200"`
	Category   *string      `json:"category" binding:"omitempty,min=1,max=100"`
	Barcode    *string      `json:"barcode" binding:"omitempty,max=64"`
	Price      *types.Money `json:"price"`
	MinStock   *int64       `json:"minStock" binding:"omitempty,min=0"`
	MinContent *types.Money `json:"minContent"`
}

// Details converts the request to a domain patch.
func (r UpdateProductRequest) Details() product.Details {
	return product.Details{
		Name:       r.Name,
		Category:   r.Category,
		Barcode:    r.Barcode,
		Price:      r.Price,
		MinStock:   r.MinStock,
		MinContent: r.MinContent,
	}
}
