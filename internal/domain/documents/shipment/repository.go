package shipment

import (
	"context"
	"time"

	"ebase/internal/core/id"
	"ebase/internal/domain"
)

// Repository defines operations for shipment documents.
type Repository interface {
	Create(ctx context.Context, doc *Shipment) error
	GetByID(ctx context.Context, docID id.ID) (*Shipment, error)
	// GetForUpdate locks the shipment row for a revision or reversal.
	GetForUpdate(ctx context.Context, docID id.ID) (*Shipment, error)
	// Update stores header fields with optimistic locking on version.
	Update(ctx context.Context, doc *Shipment) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	// SaveLines replaces the full line set of the shipment.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Shipment], error)
}

// ListFilter for filtering shipments.
type ListFilter struct {
	domain.ListFilter

	PartID   *id.ID
	RepairID *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}
