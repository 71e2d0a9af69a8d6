package repair

import (
	"context"
	"time"

	"ebase/internal/core/id"
	"ebase/internal/domain"
)

// Repository defines persistence of repair records and their child tables.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, repairID id.ID) (*Record, error)
	GetForUpdate(ctx context.Context, repairID id.ID) (*Record, error)
	// Update stores header fields with optimistic locking on version.
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, repairID id.ID) error

	GetParts(ctx context.Context, repairID id.ID) ([]PartUsage, error)
	// SaveParts replaces the RepairPartUsage rows of the repair.
	SaveParts(ctx context.Context, repairID id.ID, parts []PartUsage) error
	GetAccessories(ctx context.Context, repairID id.ID) ([]AccessoryUsage, error)
	SaveAccessories(ctx context.Context, repairID id.ID, items []AccessoryUsage) error

	SetShipment(ctx context.Context, repairID id.ID, shipmentID *id.ID) error
	SetActPath(ctx context.Context, repairID id.ID, kind ActKind, path string) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Record], error)
}

// ListFilter for filtering repairs.
type ListFilter struct {
	domain.ListFilter

	EquipmentAccountingID *id.ID
	OnlyOpen              bool
	DateFrom              *time.Time
	DateTo                *time.Time
}

// ReplacementRepository persists loaner units.
type ReplacementRepository interface {
	domain.CatalogRepository[*Replacement]

	GetForUpdate(ctx context.Context, replacementID id.ID) (*Replacement, error)
}
