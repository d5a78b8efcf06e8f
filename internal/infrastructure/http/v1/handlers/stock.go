package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockcore/internal/core/apperror"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/internal/infrastructure/http/v1/dto"
	"stockcore/internal/infrastructure/importer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxSheetBytes bounds an uploaded count sheet.
const maxSheetBytes = 10 << 20

// StockHandler serves stock moves, adjustments, opname and COGS preview.
type StockHandler struct {
	*BaseHandler
	inventory *inventory.Service
	products  *product.Service
	moves     *stockmove.Service
	costing   *costing.Engine
	importer  *importer.Importer
}

// NewStockHandler creates a stock handler.
func NewStockHandler(
	base *BaseHandler,
	inv *inventory.Service,
	products *product.Service,
	moves *stockmove.Service,
	engine *costing.Engine,
) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		inventory:   inv,
		products:    products,
		moves:       moves,
		costing:     engine,
		importer:    importer.New(inv),
	}
}

// Moves handles GET /stock-moves
func (h *StockHandler) Moves(c *gin.Context) {
	var q dto.MoveListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.moves.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, dto.Identity[*stockmove.Move]))
}

// Adjust handles POST /stock/adjustments
func (h *StockHandler) Adjust(c *gin.Context) {
	var cmd inventory.AdjustCommand
	if !h.BindJSON(c, &cmd) {
		return
	}
	doc, err := h.inventory.AdjustStock(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Adjustments handles GET /stock/adjustments
func (h *StockHandler) Adjustments(c *gin.Context) {
	var q dto.AdjustmentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.Filter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.inventory.AdjustmentHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Opname handles POST /stock/opname
func (h *StockHandler) Opname(c *gin.Context) {
	var cmd inventory.OpnameCommand
	if !h.BindJSON(c, &cmd) {
		return
	}
	doc, err := h.inventory.Opname(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// OpnameSheet handles GET /stock/opname/sheet
func (h *StockHandler) OpnameSheet(c *gin.Context) {
	items, err := h.products.All(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	var buf bytes.Buffer
	if err := importer.WriteCountSheet(&buf, items); err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	name := fmt.Sprintf("opname-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// OpnameImport handles POST /stock/opname/import (multipart field "file").
func (h *StockHandler) OpnameImport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSheetBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart field 'file' is required").WithCause(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer func() { _ = f.Close() }()

	report, err := h.importer.Import(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Cogs handles POST /cogs
func (h *StockHandler) Cogs(c *gin.Context) {
	var req dto.CogsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cogs, err := h.costing.ComputeCogs(c.Request.Context(), req.Lines())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CogsResponse{Cogs: cogs})
}
