package dto

import (
	"fmt"

	"ebase/internal/core/types"
	"ebase/internal/domain/documents/shipment"
)

// ShipmentLineRequest is one (part, lot, quantity) line.
type ShipmentLineRequest struct {
	PartID         string         `json:"partId" binding:"required,uuid"`
	ExpirationDate string         `json:"expirationDate" binding:"omitempty,isodate"`
	Quantity       types.Quantity `json:"quantity"`
}

// CreateShipmentRequest records issued parts.
type CreateShipmentRequest struct {
	DocNum       string                `json:"docNum" binding:"max=20"`
	ShipmentDate string                `json:"shipmentDate" binding:"omitempty,isodate"`
	RepairID     string                `json:"repairId" binding:"omitempty,uuid"`
	Comment      *string               `json:"comment"`
	Lines        []ShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToCommand converts the request to a domain command.
func (r *CreateShipmentRequest) ToCommand() (shipment.RecordCommand, error) {
	lines, err := lineInputs(r.Lines)
	if err != nil {
		return shipment.RecordCommand{}, err
	}
	date, err := parseRequiredDate("shipmentDate", r.ShipmentDate)
	if err != nil {
		return shipment.RecordCommand{}, err
	}
	repairID, err := parseOptionalID("repairId", r.RepairID)
	if err != nil {
		return shipment.RecordCommand{}, err
	}
	return shipment.RecordCommand{
		Lines:        lines,
		DocNum:       r.DocNum,
		ShipmentDate: date,
		RepairID:     repairID,
		Comment:      r.Comment,
	}, nil
}

// ReviseShipmentRequest replaces the lines of a shipment.
type ReviseShipmentRequest struct {
	Comment *string               `json:"comment"`
	Lines   []ShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToCommand converts the request to a domain command.
func (r *ReviseShipmentRequest) ToCommand() (shipment.ReviseCommand, error) {
	lines, err := lineInputs(r.Lines)
	if err != nil {
		return shipment.ReviseCommand{}, err
	}
	return shipment.ReviseCommand{Lines: lines, Comment: r.Comment}, nil
}

func lineInputs(in []ShipmentLineRequest) ([]shipment.LineInput, error) {
	out := make([]shipment.LineInput, len(in))
	for i, l := range in {
		partID, err := parseID(fmt.Sprintf("lines[%d].partId", i), l.PartID)
		if err != nil {
			return nil, err
		}
		exp, err := parseDate(fmt.Sprintf("lines[%d].expirationDate", i), l.ExpirationDate)
		if err != nil {
			return nil, err
		}
		out[i] = shipment.LineInput{PartID: partID, ExpirationDate: exp, Quantity: l.Quantity}
	}
	return out, nil
}
