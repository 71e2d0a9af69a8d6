package handlers

import (
	"github.com/gin-gonic/gin"

	"ebase/internal/domain/documents/shipment"
	"ebase/internal/infrastructure/http/v1/dto"
)

// ShipmentHandler handles HTTP requests for shipments.
type ShipmentHandler struct {
	*BaseHandler
	service *shipment.Service
}

// NewShipmentHandler creates a new shipment handler.
func NewShipmentHandler(base *BaseHandler, service *shipment.Service) *ShipmentHandler {
	return &ShipmentHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.RecordShipment(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// ReviseLines handles PUT /shipments/:id/lines
func (h *ShipmentHandler) ReviseLines(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReviseShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.ReviseShipment(c.Request.Context(), docID, cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	partID, ok := h.QueryID(c, "partId")
	if !ok {
		return
	}
	repairID, ok := h.QueryID(c, "repairId")
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

	res, err := h.service.List(c.Request.Context(), shipment.ListFilter{
		ListFilter: h.ListFilter(c),
		PartID:     partID,
		RepairID:   repairID,
		DateFrom:   from,
		DateTo:     to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	writeList(c, res)
}

// Get handles GET /shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
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

// Delete handles DELETE /shipments/:id by returning every line to the ledger.
func (h *ShipmentHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.ReverseShipment(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
