// Package supply records incoming spare-part stock.
package supply

import (
	"context"
	"strings"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
)

// DefaultDocNum is stored when the delivery came without a document number.
const DefaultDocNum = "б/н"

// Supply is one incoming-stock transaction for one lot.
type Supply struct {
	entity.BaseDocument

	PartID         id.ID          `db:"part_id" json:"partId"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
	ExpirationDate *time.Time     `db:"expiration_date" json:"expirationDate,omitempty"`
	DocNum         string         `db:"doc_num" json:"docNum"`
	SupplyDate     time.Time      `db:"supply_date" json:"supplyDate"`
	Comment        *string        `db:"comment" json:"comment,omitempty"`
}

// Lot returns the ledger lot this supply feeds.
func (s *Supply) Lot() entity.Lot {
	return entity.NewLot(s.PartID, s.ExpirationDate)
}

// Validate implements entity.Validatable interface.
func (s *Supply) Validate(_ context.Context) error {
	if id.IsNil(s.PartID) {
		return apperror.NewValidation("part is required").WithField("partId")
	}
	if s.Quantity.IsNegative() {
		return apperror.NewValidation("quantity must not be negative").WithField("quantity")
	}
	if s.SupplyDate.IsZero() {
		return apperror.NewValidation("supply date is required").WithField("supplyDate")
	}
	return nil
}

// RecordCommand carries the user input of a new supply.
type RecordCommand struct {
	PartID         id.ID
	Quantity       types.Quantity
	ExpirationDate *time.Time
	DocNum         string
	SupplyDate     time.Time
	Comment        *string
}

func (c RecordCommand) toSupply(userID string) *Supply {
	docNum := strings.TrimSpace(c.DocNum)
	if docNum == "" {
		docNum = DefaultDocNum
	}
	supplyDate := c.SupplyDate
	if supplyDate.IsZero() {
		supplyDate = time.Now()
	}
	return &Supply{
		BaseDocument:   entity.NewBaseDocument(userID),
		PartID:         c.PartID,
		Quantity:       c.Quantity,
		ExpirationDate: types.DatePtr(c.ExpirationDate),
		DocNum:         docNum,
		SupplyDate:     types.DateOf(supplyDate),
		Comment:        c.Comment,
	}
}
