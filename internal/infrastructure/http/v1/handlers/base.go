// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/infrastructure/http/v1/dto"
	"ebase/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID reads a UUID path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	v, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid id format").WithField(param))
		return id.Nil(), false
	}
	return v, true
}

// QueryID reads an optional UUID query parameter.
func (h *BaseHandler) QueryID(c *gin.Context, key string) (*id.ID, bool) {
	v, err := id.ParseOptional(c.Query(key))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid id format").WithField(key))
		return nil, false
	}
	return v, true
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func (h *BaseHandler) QueryDate(c *gin.Context, key string) (*time.Time, bool) {
	v, err := types.ParseDate(c.Query(key))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("date must be YYYY-MM-DD").WithField(key))
		return nil, false
	}
	return v, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ListFilter reads search, orderBy and pagination query parameters.
func (h *BaseHandler) ListFilter(c *gin.Context) domain.ListFilter {
	return domain.ListFilter{
		Search:  c.Query("search"),
		OrderBy: c.Query("orderBy"),
		Limit:   h.ParseIntQuery(c, "limit", 50),
		Offset:  h.ParseIntQuery(c, "offset", 0),
	}
}

// CompleteIdempotency marks idempotency key as completed with the same HTTP semantics
// (status code + content type + body) for correct replay.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	var body []byte
	if response != nil {
		body, _ = json.Marshal(response)
	}
	middleware.CompleteIdempotency(c, statusCode, contentType, body)
}

// writeList sends a page of items.
func writeList[T any](c *gin.Context, res domain.ListResult[T]) {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}

// Created sends 201 response with the created entity.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}
