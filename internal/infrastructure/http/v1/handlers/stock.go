package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ebase/internal/domain/registers/stock"
	"ebase/internal/infrastructure/export"
)

// StockHandler handles HTTP requests for the spare-part ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new ledger handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *StockHandler) filter(c *gin.Context) (stock.ListFilter, bool) {
	partID, ok := h.QueryID(c, "partId")
	if !ok {
		return stock.ListFilter{}, false
	}
	return stock.ListFilter{
		ListFilter:   h.ListFilter(c),
		PartID:       partID,
		OnlyPositive: c.Query("onlyPositive") == "true",
		OnlyOverdue:  c.Query("onlyOverdue") == "true",
	}, true
}

// List handles GET /stock. Overdue flags are refreshed before listing.
func (h *StockHandler) List(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	writeList(c, res)
}

// Availability handles GET /stock/parts/:id/availability
func (h *StockHandler) Availability(c *gin.Context) {
	partID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.PartAvailability(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if a.Lots == nil {
		a.Lots = []stock.Entry{}
	}
	c.JSON(http.StatusOK, a)
}

// Reconcile handles GET /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	diff, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if diff == nil {
		diff = []stock.Discrepancy{}
	}
	c.JSON(http.StatusOK, gin.H{
		"consistent":    len(diff) == 0,
		"discrepancies": diff,
	})
}

// Export handles GET /stock/export and streams the filtered ledger as xlsx.
func (h *StockHandler) Export(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	rows, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.StockXLSX(&buf, rows); err != nil {
		h.Error(c, err)
		return
	}

	name := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
