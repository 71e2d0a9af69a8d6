// Package shipment records outgoing spare-part stock, standalone or on behalf of a repair.
package shipment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
)

// DefaultDocNum is stored when a manual shipment has no document number.
const DefaultDocNum = "б/н"

// Shipment groups one or many lines leaving the stock in one event.
type Shipment struct {
	entity.BaseDocument

	DocNum       string    `db:"doc_num" json:"docNum"`
	ShipmentDate time.Time `db:"shipment_date" json:"shipmentDate"`

	// RepairID links the shipment to the repair that consumed the parts.
	RepairID *id.ID `db:"repair_id" json:"repairId,omitempty"`

	Comment *string `db:"comment" json:"comment,omitempty"`
	// CommentIsAuto is true while Comment is synthesized from the repair;
	// a comment typed by a user is never regenerated.
	CommentIsAuto bool `db:"comment_is_auto" json:"commentIsAuto"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one (part, lot, quantity) row of a shipment.
type Line struct {
	LineNo         int            `db:"line_no" json:"lineNo"`
	PartID         id.ID          `db:"part_id" json:"partId"`
	ExpirationDate *time.Time     `db:"expiration_date" json:"expirationDate,omitempty"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
}

// Lot returns the ledger lot of the line.
func (l Line) Lot() entity.Lot {
	return entity.NewLot(l.PartID, l.ExpirationDate)
}

// LineInput is a submitted line.
type LineInput struct {
	PartID         id.ID
	ExpirationDate *time.Time
	Quantity       types.Quantity
}

func buildLines(in []LineInput) []Line {
	lines := make([]Line, len(in))
	for i, l := range in {
		lines[i] = Line{
			LineNo:         i + 1,
			PartID:         l.PartID,
			ExpirationDate: types.DatePtr(l.ExpirationDate),
			Quantity:       l.Quantity,
		}
	}
	return lines
}

// Validate implements entity.Validatable interface.
func (s *Shipment) Validate(_ context.Context) error {
	if s.ShipmentDate.IsZero() {
		return apperror.NewValidation("shipment date is required").WithField("shipmentDate")
	}
	if len(s.Lines) == 0 {
		return apperror.NewValidation("shipment must have at least one line").WithField("lines")
	}
	return validateLines(s.Lines)
}

func validateLines(lines []Line) error {
	for i, l := range lines {
		if id.IsNil(l.PartID) {
			return apperror.NewValidation("part is required").
				WithField(fmt.Sprintf("lines[%d].partId", i)).
				WithLine(i + 1)
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation("Количество не может быть равно 0").
				WithField(fmt.Sprintf("lines[%d].quantity", i)).
				WithLine(i + 1)
		}
	}
	return nil
}

// partIDs returns distinct part IDs of the lines in first-seen order.
func partIDs(lines []Line) []id.ID {
	seen := make(map[id.ID]struct{}, len(lines))
	out := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.PartID]; ok {
			continue
		}
		seen[l.PartID] = struct{}{}
		out = append(out, l.PartID)
	}
	return out
}

// lotTotal is the summed quantity of a lot and the first line that references it.
type lotTotal struct {
	lot       entity.Lot
	quantity  types.Quantity
	firstLine int // index into lines
}

// totalsByLot sums quantities of lines hitting the same lot, in first-seen order.
func totalsByLot(lines []Line) []lotTotal {
	idx := make(map[entity.LotKey]int, len(lines))
	var out []lotTotal
	for i, l := range lines {
		k := l.Lot().Key()
		if j, ok := idx[k]; ok {
			out[j].quantity += l.Quantity
			continue
		}
		idx[k] = len(out)
		out = append(out, lotTotal{lot: l.Lot(), quantity: l.Quantity, firstLine: i})
	}
	return out
}

// lotDelta is the change of the shipped quantity of one lot between two line sets.
type lotDelta struct {
	lot   entity.Lot
	delta types.Quantity // positive: more shipped, negative: returned to stock
	line  int            // index of the new line responsible, -1 if the lot was removed
}

// diffLines computes per-lot deltas old→new. Returns come first so that moving
// quantity between lots of the same part never fails on the intermediate state.
func diffLines(oldLines, newLines []Line) []lotDelta {
	oldTotals := totalsByLot(oldLines)
	newTotals := totalsByLot(newLines)

	byKey := make(map[entity.LotKey]*lotDelta)
	var order []entity.LotKey
	for _, t := range oldTotals {
		k := t.lot.Key()
		byKey[k] = &lotDelta{lot: t.lot, delta: t.quantity.Neg(), line: -1}
		order = append(order, k)
	}
	for _, t := range newTotals {
		k := t.lot.Key()
		if d, ok := byKey[k]; ok {
			d.delta += t.quantity
			d.line = t.firstLine
			continue
		}
		byKey[k] = &lotDelta{lot: t.lot, delta: t.quantity, line: t.firstLine}
		order = append(order, k)
	}

	out := make([]lotDelta, 0, len(order))
	for _, k := range order {
		if d := byKey[k]; !d.delta.IsZero() {
			out = append(out, *d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].delta < 0 && out[j].delta > 0
	})
	return out
}
