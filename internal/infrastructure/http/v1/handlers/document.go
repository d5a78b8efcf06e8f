package handlers

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/core/tenant"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/cashledger"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/infrastructure/http/v1/dto"
)

// DocumentHandler serves /sales and /purchases.
type DocumentHandler struct {
	*BaseHandler
	inventory *inventory.Service
	cash      cashledger.Lister
}

// NewDocumentHandler creates a document handler. cash may be nil.
func NewDocumentHandler(base *BaseHandler, inv *inventory.Service, cash cashledger.Lister) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, inventory: inv, cash: cash}
}

// Checkout handles POST /sales/checkout
func (h *DocumentHandler) Checkout(c *gin.Context) {
	var cmd inventory.CheckoutCommand
	if !h.BindJSON(c, &cmd) {
		return
	}
	doc, err := h.inventory.Checkout(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// ListSales handles GET /sales
func (h *DocumentHandler) ListSales(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.inventory.SaleHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// GetSale handles GET /sales/:id
func (h *DocumentHandler) GetSale(c *gin.Context) {
	saleID, ok := h.ParamID(c)
	if !ok {
		return
	}
	doc, err := h.inventory.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// EditSaleTotal handles PATCH /sales/:id/total
func (h *DocumentHandler) EditSaleTotal(c *gin.Context) {
	saleID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.EditSaleTotalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.inventory.EditSaleTotal(c.Request.Context(), saleID, req.Total)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// CreatePurchase handles POST /purchases
func (h *DocumentHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if req.IsOther() {
		doc, err := h.inventory.RecordOtherPurchase(ctx, req.OtherCommand())
		if err != nil {
			h.Error(c, err)
			return
		}
		h.Created(c, doc)
		return
	}
	doc, err := h.inventory.ReceivePurchase(ctx, req.PurchaseCommand)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// ListPurchases handles GET /purchases
func (h *DocumentHandler) ListPurchases(c *gin.Context) {
	var q dto.PurchaseListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.inventory.PurchaseHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// GetPurchase handles GET /purchases/:id
func (h *DocumentHandler) GetPurchase(c *gin.Context) {
	purchaseID, ok := h.ParamID(c)
	if !ok {
		return
	}
	doc, err := h.inventory.GetPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// VoidPurchase handles POST /purchases/:id/void. Voiding twice answers 200
// with alreadyVoided=true.
func (h *DocumentHandler) VoidPurchase(c *gin.Context) {
	purchaseID, ok := h.ParamID(c)
	if !ok {
		return
	}
	res, err := h.inventory.VoidPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// SaleCash handles GET /sales/:id/cash
func (h *DocumentHandler) SaleCash(c *gin.Context) {
	h.cashFor(c, audit.EntitySale)
}

// PurchaseCash handles GET /purchases/:id/cash
func (h *DocumentHandler) PurchaseCash(c *gin.Context) {
	h.cashFor(c, audit.EntityPurchase)
}

func (h *DocumentHandler) cashFor(c *gin.Context, entity string) {
	refID, ok := h.ParamID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	items := []cashledger.Movement{}
	if h.cash != nil {
		found, err := h.cash.ForReference(ctx, orgID, entity, refID)
		if err != nil {
			h.Error(c, err)
			return
		}
		if found != nil {
			items = found
		}
	}
	h.OK(c, gin.H{"items": items})
}
