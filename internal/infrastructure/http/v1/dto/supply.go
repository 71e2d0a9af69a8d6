package dto

import (
	"ebase/internal/core/types"
	"ebase/internal/domain/documents/supply"
)

// CreateSupplyRequest records received parts.
type CreateSupplyRequest struct {
	PartID         string         `json:"partId" binding:"required,uuid"`
	Quantity       types.Quantity `json:"quantity"`
	ExpirationDate string         `json:"expirationDate" binding:"omitempty,isodate"`
	DocNum         string         `json:"docNum" binding:"max=20"`
	SupplyDate     string         `json:"supplyDate" binding:"omitempty,isodate"`
	Comment        *string        `json:"comment"`
}

// ToCommand converts the request to a domain command.
func (r *CreateSupplyRequest) ToCommand() (supply.RecordCommand, error) {
	partID, err := parseID("partId", r.PartID)
	if err != nil {
		return supply.RecordCommand{}, err
	}
	exp, err := parseDate("expirationDate", r.ExpirationDate)
	if err != nil {
		return supply.RecordCommand{}, err
	}
	date, err := parseRequiredDate("supplyDate", r.SupplyDate)
	if err != nil {
		return supply.RecordCommand{}, err
	}
	return supply.RecordCommand{
		PartID:         partID,
		Quantity:       r.Quantity,
		ExpirationDate: exp,
		DocNum:         r.DocNum,
		SupplyDate:     date,
		Comment:        trimmed(r.Comment),
	}, nil
}
