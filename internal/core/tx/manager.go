// Package tx provides transaction management abstractions.
// Domain services depend on Manager; the PostgreSQL and in-memory storage
// backends implement it.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	//
	// Nested calls reuse the existing transaction from context, so a repair
	// save and the shipment it records commit or roll back together.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
