package part

import (
	"context"

	"ebase/internal/core/id"
	"ebase/internal/domain"
)

// Repository defines the interface for Part persistence.
type Repository interface {
	domain.CatalogRepository[*Part]

	// FindByArticleName retrieves the part with the given (article, name) pair.
	FindByArticleName(ctx context.Context, article, name string) (*Part, error)

	// GetMany loads several parts at once; missing IDs are simply absent from the map.
	GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*Part, error)
}
