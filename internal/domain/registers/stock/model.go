package stock

import (
	"time"

	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
)

// Entry is the on-hand quantity of one lot.
type Entry struct {
	entity.Lot
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	IsOverdue bool           `db:"is_overdue" json:"isOverdue"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// EntryView is an Entry joined with its part for listings and exports.
type EntryView struct {
	Entry
	Article string `db:"article" json:"article"`
	Name    string `db:"name" json:"name"`
	Unit    string `db:"unit" json:"unit"`
}

// ListFilter narrows ledger listings.
type ListFilter struct {
	domain.ListFilter

	PartID       *id.ID
	OnlyPositive bool
	OnlyOverdue  bool
}

// Availability summarizes a part across its lots.
type Availability struct {
	PartID id.ID          `json:"partId"`
	Total  types.Quantity `json:"total"`
	// Usable excludes overdue lots.
	Usable types.Quantity `json:"usable"`
	Lots   []Entry        `json:"lots"`
}

// Discrepancy is a lot whose ledger quantity differs from its document history.
type Discrepancy struct {
	entity.Lot
	Expected types.Quantity `json:"expected"`
	Actual   types.Quantity `json:"actual"`
}
