// Package stock provides the spare-part inventory ledger: on-hand quantity per (part, expiration lot).
package stock

import (
	"context"
	"time"

	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
)

// Repository defines storage operations of the ledger.
// Increment and Decrement must each be a single atomic statement against the lot row;
// concurrent shipments of the same lot serialize on it.
type Repository interface {
	// Get returns the lot entry or a NOT_FOUND AppError when the lot was never supplied.
	Get(ctx context.Context, lot entity.Lot) (Entry, error)

	// Increment adds qty to the lot, creating the row when absent.
	Increment(ctx context.Context, lot entity.Lot, qty types.Quantity) error

	// Decrement subtracts qty only if at least qty is on hand.
	// Returns false when the row is missing or holds less than qty.
	Decrement(ctx context.Context, lot entity.Lot, qty types.Quantity) (bool, error)

	// RecomputeOverdue sets is_overdue = expiration_date < asOf for dated lots
	// and returns the number of rows whose flag changed.
	RecomputeOverdue(ctx context.Context, asOf time.Time) (int64, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[EntryView], error)

	// ListByPart returns every lot of the part ordered by expiration date (undated first).
	ListByPart(ctx context.Context, partID id.ID) ([]Entry, error)

	// All returns every ledger row.
	All(ctx context.Context) ([]Entry, error)

	// ExpectedBalances derives per-lot quantities from supplies minus shipment lines.
	ExpectedBalances(ctx context.Context) ([]entity.LotQuantity, error)
}
