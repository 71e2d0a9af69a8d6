package dto

import (
	"fmt"
	"time"

	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain/repair"
)

// RepairPartRequest is the quantity taken from one lot.
type RepairPartRequest struct {
	PartID         string         `json:"partId" binding:"required,uuid"`
	ExpirationDate string         `json:"expirationDate" binding:"omitempty,isodate"`
	Quantity       types.Quantity `json:"quantity"`
}

// RepairAccessoryRequest is an accessory handed over with the unit.
type RepairAccessoryRequest struct {
	Name     string         `json:"name" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

// SaveRepairRequest creates or updates a repair. Version is required on update.
type SaveRepairRequest struct {
	EquipmentAccountingID string                   `json:"equipmentAccountingId" binding:"required,uuid"`
	ServiceType           *string                  `json:"serviceType"`
	Reason                *string                  `json:"reason"`
	Description           *string                  `json:"description"`
	JobContent            *string                  `json:"jobContent"`
	Engineer              *string                  `json:"engineer"`
	BegDate               string                   `json:"begDate" binding:"omitempty,isodate"`
	EndDate               string                   `json:"endDate" binding:"omitempty,isodate"`
	ReplacementID         string                   `json:"replacementId" binding:"omitempty,uuid"`
	Parts                 []RepairPartRequest      `json:"parts" binding:"dive"`
	Accessories           []RepairAccessoryRequest `json:"accessories" binding:"dive"`
	ShipmentComment       *string                  `json:"shipmentComment"`
	Version               int                      `json:"version"`
}

// ToCommand converts the request to a domain command; repairID is nil on create.
func (r *SaveRepairRequest) ToCommand(repairID *id.ID) (repair.SaveCommand, error) {
	equipmentID, err := parseID("equipmentAccountingId", r.EquipmentAccountingID)
	if err != nil {
		return repair.SaveCommand{}, err
	}
	begDate, err := parseRequiredDate("begDate", r.BegDate)
	if err != nil {
		return repair.SaveCommand{}, err
	}
	endDate, err := parseDate("endDate", r.EndDate)
	if err != nil {
		return repair.SaveCommand{}, err
	}
	replacementID, err := parseOptionalID("replacementId", r.ReplacementID)
	if err != nil {
		return repair.SaveCommand{}, err
	}

	parts := make([]repair.PartUsage, len(r.Parts))
	for i, p := range r.Parts {
		partID, err := parseID(fmt.Sprintf("parts[%d].partId", i), p.PartID)
		if err != nil {
			return repair.SaveCommand{}, err
		}
		exp, err := parseDate(fmt.Sprintf("parts[%d].expirationDate", i), p.ExpirationDate)
		if err != nil {
			return repair.SaveCommand{}, err
		}
		parts[i] = repair.PartUsage{PartID: partID, ExpirationDate: exp, Quantity: p.Quantity}
	}

	accessories := make([]repair.AccessoryUsage, len(r.Accessories))
	for i, a := range r.Accessories {
		accessories[i] = repair.AccessoryUsage{Name: a.Name, Quantity: a.Quantity}
	}

	return repair.SaveCommand{
		ID:                    repairID,
		Version:               r.Version,
		EquipmentAccountingID: equipmentID,
		ServiceType:           trimmed(r.ServiceType),
		Reason:                trimmed(r.Reason),
		Description:           trimmed(r.Description),
		JobContent:            trimmed(r.JobContent),
		Engineer:              trimmed(r.Engineer),
		BegDate:               begDate,
		EndDate:               endDate,
		ReplacementID:         replacementID,
		Parts:                 parts,
		Accessories:           accessories,
		ShipmentComment:       r.ShipmentComment,
	}, nil
}

// CloseRepairRequest sets the end date of a repair; empty means today.
type CloseRepairRequest struct {
	EndDate string `json:"endDate" binding:"omitempty,isodate"`
}

// Date returns the requested end date or today.
func (r *CloseRepairRequest) Date(today time.Time) (time.Time, error) {
	d, err := parseDate("endDate", r.EndDate)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return today, nil
	}
	return *d, nil
}

// ActResponse points to a generated act.
type ActResponse struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// CreateReplacementRequest registers a loaner unit.
type CreateReplacementRequest struct {
	EquipmentName string   `json:"equipmentName" binding:"required"`
	SerialNumber  string   `json:"serialNumber" binding:"required"`
	Accessories   []string `json:"accessories"`
	Comment       *string  `json:"comment"`
}

// ToEntity converts request to domain entity.
func (r *CreateReplacementRequest) ToEntity() *repair.Replacement {
	accessories := make([]string, 0, len(r.Accessories))
	for _, a := range r.Accessories {
		if v := trimmed(&a); v != nil {
			accessories = append(accessories, *v)
		}
	}
	rep := repair.NewReplacement(r.EquipmentName, r.SerialNumber, accessories)
	rep.Comment = trimmed(r.Comment)
	return rep
}
