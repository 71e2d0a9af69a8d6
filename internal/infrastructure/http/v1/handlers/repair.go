package handlers

import (
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"ebase/internal/core/id"
	"ebase/internal/domain/acts"
	"ebase/internal/domain/repair"
	"ebase/internal/infrastructure/http/v1/dto"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// RepairHandler handles HTTP requests for repairs and their acts.
type RepairHandler struct {
	*BaseHandler
	service *repair.Service
	acts    *acts.Generator
}

// NewRepairHandler creates a new repair handler.
func NewRepairHandler(base *BaseHandler, service *repair.Service, generator *acts.Generator) *RepairHandler {
	return &RepairHandler{
		BaseHandler: base,
		service:     service,
		acts:        generator,
	}
}

// Create handles POST /repairs
func (h *RepairHandler) Create(c *gin.Context) {
	h.save(c, nil)
}

// Update handles PUT /repairs/:id
func (h *RepairHandler) Update(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	h.save(c, &repairID)
}

func (h *RepairHandler) save(c *gin.Context, repairID *id.ID) {
	var req dto.SaveRepairRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand(repairID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Save(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	if repairID == nil {
		h.Created(c, rec)
		return
	}
	h.OK(c, rec)
}

// Get handles GET /repairs/:id
func (h *RepairHandler) Get(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), repairID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// List handles GET /repairs
func (h *RepairHandler) List(c *gin.Context) {
	equipmentID, ok := h.QueryID(c, "equipmentAccountingId")
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

	res, err := h.service.List(c.Request.Context(), repair.ListFilter{
		ListFilter:            h.ListFilter(c),
		EquipmentAccountingID: equipmentID,
		OnlyOpen:              c.Query("onlyOpen") == "true",
		DateFrom:              from,
		DateTo:                to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	writeList(c, res)
}

// Close handles POST /repairs/:id/close
func (h *RepairHandler) Close(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseRepairRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	endDate, err := req.Date(time.Now())
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Close(c.Request.Context(), repairID, endDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Reopen handles POST /repairs/:id/reopen
func (h *RepairHandler) Reopen(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.Reopen(c.Request.Context(), repairID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// ReturnReplacement handles POST /repairs/:id/return-replacement
func (h *RepairHandler) ReturnReplacement(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.ReturnReplacement(c.Request.Context(), repairID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Delete handles DELETE /repairs/:id
func (h *RepairHandler) Delete(c *gin.Context) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), repairID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateAct handles POST /repairs/:id/acts/:kind
func (h *RepairHandler) GenerateAct(c *gin.Context) {
	repairID, kind, ok := h.actParams(c)
	if !ok {
		return
	}

	path, err := h.acts.Generate(c.Request.Context(), repairID, kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.ActResponse{Kind: string(kind), Path: path})
}

// DownloadAct handles GET /repairs/:id/acts/:kind
func (h *RepairHandler) DownloadAct(c *gin.Context) {
	repairID, kind, ok := h.actParams(c)
	if !ok {
		return
	}

	path, err := h.acts.Download(c.Request.Context(), repairID, kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Header("Content-Type", docxContentType)
	c.FileAttachment(path, filepath.Base(path))
}

func (h *RepairHandler) actParams(c *gin.Context) (id.ID, repair.ActKind, bool) {
	repairID, ok := h.ParseID(c, "id")
	if !ok {
		return id.Nil(), "", false
	}
	kind, err := repair.ParseActKind(c.Param("kind"))
	if err != nil {
		h.Error(c, err)
		return id.Nil(), "", false
	}
	return repairID, kind, true
}
