package handlers

import (
	"github.com/gin-gonic/gin"

	"ebase/internal/domain/documents/supply"
	"ebase/internal/infrastructure/http/v1/dto"
)

// SupplyHandler handles HTTP requests for supplies.
type SupplyHandler struct {
	*BaseHandler
	service *supply.Service
}

// NewSupplyHandler creates a new supply handler.
func NewSupplyHandler(base *BaseHandler, service *supply.Service) *SupplyHandler {
	return &SupplyHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /supplies
func (h *SupplyHandler) Create(c *gin.Context) {
	var req dto.CreateSupplyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.RecordSupply(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// List handles GET /supplies
func (h *SupplyHandler) List(c *gin.Context) {
	partID, ok := h.QueryID(c, "partId")
	if !ok {
		return
	}
	from, ok := h.QueryDate(c, "dateFrom")
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "dateTo")
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), supply.ListFilter{
		ListFilter: h.ListFilter(c),
		PartID:     partID,
		DateFrom:   from,
		DateTo:     to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	writeList(c, res)
}

// Get handles GET /supplies/:id
func (h *SupplyHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete handles DELETE /supplies/:id by reversing the supply.
func (h *SupplyHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.ReverseSupply(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
