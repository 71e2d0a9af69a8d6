package entity

import (
	"time"

	"ebase/internal/core/id"
	"ebase/internal/core/types"
)

// Lot identifies a quantity of one part sharing one expiration date.
// A nil ExpirationDate is the single lot of a part without expiration tracking.
type Lot struct {
	PartID         id.ID      `db:"part_id" json:"partId"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expirationDate,omitempty"`
}

// NewLot builds a lot key with the expiration date truncated to a calendar day.
func NewLot(partID id.ID, expiration *time.Time) Lot {
	return Lot{PartID: partID, ExpirationDate: types.DatePtr(expiration)}
}

// Key is a comparable representation usable as a map key.
func (l Lot) Key() LotKey {
	return LotKey{PartID: l.PartID, Expiration: types.FormatDate(l.ExpirationDate)}
}

// Equal reports whether both values denote the same lot.
func (l Lot) Equal(o Lot) bool {
	return l.PartID == o.PartID && types.SameDate(l.ExpirationDate, o.ExpirationDate)
}

// ExpirationString renders the lot date for messages and error details.
func (l Lot) ExpirationString() string {
	return types.FormatDate(l.ExpirationDate)
}

// LotKey is the map-friendly form of Lot.
type LotKey struct {
	PartID     id.ID
	Expiration string
}

// Lot converts the key back.
func (k LotKey) Lot() Lot {
	exp, _ := types.ParseDate(k.Expiration)
	return Lot{PartID: k.PartID, ExpirationDate: exp}
}

// LotQuantity is a signed quantity applied to or held by one lot.
type LotQuantity struct {
	Lot
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}
