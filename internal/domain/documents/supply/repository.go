package supply

import (
	"context"
	"time"

	"ebase/internal/core/id"
	"ebase/internal/domain"
)

// Repository defines operations for supply documents.
type Repository interface {
	Create(ctx context.Context, doc *Supply) error
	GetByID(ctx context.Context, docID id.ID) (*Supply, error)
	// GetForUpdate locks the row so concurrent deletions reverse the ledger once.
	GetForUpdate(ctx context.Context, docID id.ID) (*Supply, error)
	Delete(ctx context.Context, docID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Supply], error)
}

// ListFilter for filtering supplies.
type ListFilter struct {
	domain.ListFilter

	PartID   *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}
