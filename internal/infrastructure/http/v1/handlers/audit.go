package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain/audit"
)

// AuditHandler serves GET /audit/:entity/:entityId.
type AuditHandler struct {
	*BaseHandler
	reader audit.Reader
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, reader audit.Reader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History returns the newest records for one entity.
func (h *AuditHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			h.Error(c, apperror.NewValidation("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	records, err := h.reader.History(ctx, orgID, c.Param("entity"), c.Param("entityId"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	h.OK(c, gin.H{"items": records})
}
