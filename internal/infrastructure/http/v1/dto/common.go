// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Validation ---

// RegisterValidators adds the custom tags used by request DTOs to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := types.ParseDate(fl.Field().String())
		return err == nil
	})
}

// parseDate parses an optional YYYY-MM-DD field, attributing failures to field.
func parseDate(field, s string) (*time.Time, error) {
	t, err := types.ParseDate(s)
	if err != nil {
		return nil, apperror.NewInvalidInput("date must be YYYY-MM-DD").WithField(field).WithCause(err)
	}
	return t, nil
}

// parseRequiredDate is parseDate for a field that defaults to zero when absent.
func parseRequiredDate(field, s string) (time.Time, error) {
	t, err := parseDate(field, s)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}

func parseID(field, s string) (id.ID, error) {
	v, err := id.Parse(s)
	if err != nil {
		return id.Nil(), apperror.NewInvalidInput("invalid id format").WithField(field).WithCause(err)
	}
	return v, nil
}

func parseOptionalID(field, s string) (*id.ID, error) {
	v, err := id.ParseOptional(s)
	if err != nil {
		return nil, apperror.NewInvalidInput("invalid id format").WithField(field).WithCause(err)
	}
	return v, nil
}
