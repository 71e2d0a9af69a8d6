// Package repair manages repair records: consumed parts per lot, the loaner unit
// handed to the client and the generated acts.
package repair

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
)

// ActKind selects one of the generated documents of a repair.
type ActKind string

const (
	ActRepair      ActKind = "repair"
	ActTransferIn  ActKind = "transfer_in"
	ActTransferOut ActKind = "transfer_out"
)

// ParseActKind validates a kind coming from the API.
func ParseActKind(s string) (ActKind, error) {
	switch k := ActKind(s); k {
	case ActRepair, ActTransferIn, ActTransferOut:
		return k, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown act kind %q", s)).WithField("kind")
}

// Record is one repair engagement against one accounted equipment unit.
// Open while EndDate is nil.
type Record struct {
	entity.BaseDocument

	EquipmentAccountingID id.ID      `db:"equipment_accounting_id" json:"equipmentAccountingId"`
	ServiceType           *string    `db:"service_type" json:"serviceType,omitempty"`
	Reason                *string    `db:"reason" json:"reason,omitempty"`
	Description           *string    `db:"description" json:"description,omitempty"`
	JobContent            *string    `db:"job_content" json:"jobContent,omitempty"`
	Engineer              *string    `db:"engineer" json:"engineer,omitempty"`
	BegDate               time.Time  `db:"beg_date" json:"begDate"`
	EndDate               *time.Time `db:"end_date" json:"endDate,omitempty"`

	ReplacementID *id.ID `db:"replacement_id" json:"replacementId,omitempty"`
	ShipmentID    *id.ID `db:"shipment_id" json:"shipmentId,omitempty"`

	RepairActPath      *string `db:"repair_act_path" json:"repairActPath,omitempty"`
	TransferInActPath  *string `db:"transfer_in_act_path" json:"transferInActPath,omitempty"`
	TransferOutActPath *string `db:"transfer_out_act_path" json:"transferOutActPath,omitempty"`

	Parts       []PartUsage      `db:"-" json:"parts"`
	Accessories []AccessoryUsage `db:"-" json:"accessories"`
}

// PartUsage is the quantity of one part consumed from one lot.
type PartUsage struct {
	PartID         id.ID          `db:"part_id" json:"partId"`
	ExpirationDate *time.Time     `db:"expiration_date" json:"expirationDate,omitempty"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
}

// Lot returns the ledger lot the usage was taken from.
func (u PartUsage) Lot() entity.Lot {
	return entity.NewLot(u.PartID, u.ExpirationDate)
}

// AccessoryUsage is an accessory handed over or consumed during the repair.
type AccessoryUsage struct {
	Name     string         `db:"name" json:"name"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// IsOpen reports whether the repair is still in progress.
func (r *Record) IsOpen() bool {
	return r.EndDate == nil
}

// ActPath returns the stored path of the act of the given kind.
func (r *Record) ActPath(kind ActKind) *string {
	switch kind {
	case ActRepair:
		return r.RepairActPath
	case ActTransferIn:
		return r.TransferInActPath
	case ActTransferOut:
		return r.TransferOutActPath
	}
	return nil
}

// SetActPath stores the path of a generated act.
func (r *Record) SetActPath(kind ActKind, path string) {
	switch kind {
	case ActRepair:
		r.RepairActPath = &path
	case ActTransferIn:
		r.TransferInActPath = &path
	case ActTransferOut:
		r.TransferOutActPath = &path
	}
}

// QuantityMap groups consumed quantities by part, one entry per lot.
func (r *Record) QuantityMap() map[id.ID][]entity.LotQuantity {
	out := make(map[id.ID][]entity.LotQuantity)
	for _, u := range r.Parts {
		out[u.PartID] = append(out[u.PartID], entity.LotQuantity{Lot: u.Lot(), Quantity: u.Quantity})
	}
	return out
}

// Validate implements entity.Validatable interface.
func (r *Record) Validate(_ context.Context) error {
	if id.IsNil(r.EquipmentAccountingID) {
		return apperror.NewValidation("equipment is required").WithField("equipmentAccountingId")
	}
	if r.BegDate.IsZero() {
		return apperror.NewValidation("start date is required").WithField("begDate")
	}
	if r.EndDate != nil && r.EndDate.Before(r.BegDate) {
		return apperror.NewValidation("end date must not be before start date").WithField("endDate")
	}

	seen := make(map[entity.LotKey]int, len(r.Parts))
	for i, u := range r.Parts {
		if id.IsNil(u.PartID) {
			return apperror.NewValidation("part is required").
				WithField(fmt.Sprintf("parts[%d].partId", i)).
				WithLine(i + 1)
		}
		if !u.Quantity.IsPositive() {
			return apperror.NewValidation("Количество не может быть равно 0").
				WithField(fmt.Sprintf("parts[%d].quantity", i)).
				WithLine(i + 1)
		}
		k := u.Lot().Key()
		if j, dup := seen[k]; dup {
			return apperror.NewValidation(fmt.Sprintf("lot is listed twice (line %d)", j+1)).
				WithField(fmt.Sprintf("parts[%d].expirationDate", i)).
				WithLine(i + 1)
		}
		seen[k] = i
	}

	for i, a := range r.Accessories {
		if strings.TrimSpace(a.Name) == "" {
			return apperror.NewValidation("accessory name is required").
				WithField(fmt.Sprintf("accessories[%d].name", i)).
				WithLine(i + 1)
		}
		if !a.Quantity.IsPositive() {
			return apperror.NewValidation("Количество не может быть равно 0").
				WithField(fmt.Sprintf("accessories[%d].quantity", i)).
				WithLine(i + 1)
		}
	}
	return nil
}

// ReplacementState is where a loaner unit currently is.
type ReplacementState string

const (
	StateInOffice   ReplacementState = "in_office"
	StateWithClient ReplacementState = "with_client"
)

// Replacement is a loaner unit handed to a client while their equipment is repaired.
type Replacement struct {
	entity.BaseEntity

	EquipmentName string           `db:"equipment_name" json:"equipmentName"`
	SerialNumber  string           `db:"serial_number" json:"serialNumber"`
	Accessories   []string         `db:"accessories" json:"accessories"`
	State         ReplacementState `db:"state" json:"state"`
	// RepairID is the repair currently holding the unit.
	RepairID *id.ID  `db:"repair_id" json:"repairId,omitempty"`
	Comment  *string `db:"comment" json:"comment,omitempty"`
}

// NewReplacement registers a loaner unit sitting in the office.
func NewReplacement(equipmentName, serial string, accessories []string) *Replacement {
	return &Replacement{
		BaseEntity:    entity.NewBaseEntity(),
		EquipmentName: strings.TrimSpace(equipmentName),
		SerialNumber:  strings.TrimSpace(serial),
		Accessories:   accessories,
		State:         StateInOffice,
	}
}

// Validate implements entity.Validatable interface.
func (r *Replacement) Validate(_ context.Context) error {
	if r.EquipmentName == "" {
		return apperror.NewValidation("equipment name is required").WithField("equipmentName")
	}
	if r.SerialNumber == "" {
		return apperror.NewValidation("serial number is required").WithField("serialNumber")
	}
	return nil
}

func (r *Replacement) handOver(repairID id.ID) {
	r.State = StateWithClient
	r.RepairID = &repairID
}

func (r *Replacement) release() {
	r.State = StateInOffice
	r.RepairID = nil
}
