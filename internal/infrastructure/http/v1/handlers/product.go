package handlers

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves /products.
type ProductHandler struct {
	*BaseHandler
	products  *product.Service
	inventory *inventory.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, products *product.Service, inv *inventory.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, products: products, inventory: inv}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	res, err := h.products.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.FromProduct))
}

// LowStock handles GET /products/low-stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	items, err := h.products.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]dto.ProductResponse, len(items))
	for i, p := range items {
		out[i] = dto.FromProduct(p)
	}
	h.OK(c, gin.H{"items": out})
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParamID(c)
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var cmd inventory.CreateProductCommand
	if !h.BindJSON(c, &cmd) {
		return
	}
	p, err := h.inventory.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromProduct(p))
}

// Update handles PATCH /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.products.UpdateDetails(c.Request.Context(), productID, req.Details())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}
