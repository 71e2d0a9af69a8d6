package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"ebase/internal/domain"
	"ebase/internal/domain/documents/supply"
	"ebase/internal/infrastructure/storage/postgres"
)

// SupplyRepo implements supply.Repository.
type SupplyRepo struct {
	*BaseDocumentRepo[*supply.Supply]
}

var _ supply.Repository = (*SupplyRepo)(nil)

// NewSupplyRepo creates a new supply repository.
func NewSupplyRepo(txManager *postgres.TxManager) *SupplyRepo {
	return &SupplyRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager,
			DocumentTable{
				Name:       "doc_supplies",
				Entity:     "supply",
				DateCol:    "supply_date",
				SearchCols: []string{"doc_num", "comment"},
			},
			postgres.ExtractDBColumns[supply.Supply](),
			func() *supply.Supply { return &supply.Supply{} },
		),
	}
}

// List implements supply.Repository.
func (r *SupplyRepo) List(ctx context.Context, f supply.ListFilter) (domain.ListResult[*supply.Supply], error) {
	q := r.listQuery(f.ListFilter, f.DateFrom, f.DateTo)
	if f.PartID != nil {
		q = q.Where(squirrel.Eq{"part_id": *f.PartID})
	}
	return r.page(ctx, q, f.ListFilter)
}
