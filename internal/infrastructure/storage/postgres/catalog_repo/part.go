package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ebase/internal/core/id"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/infrastructure/storage/postgres"
)

const partTable = "cat_parts"

// PartRepo implements part.Repository.
type PartRepo struct {
	*BaseCatalogRepo[*part.Part]
}

var _ part.Repository = (*PartRepo)(nil)

// NewPartRepo creates a new part repository.
func NewPartRepo(txManager *postgres.TxManager) *PartRepo {
	return &PartRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			partTable, "part",
			postgres.ExtractDBColumns[part.Part](),
			[]string{"article", "name"},
			"name, article",
			func() *part.Part { return &part.Part{} },
		),
	}
}

// FindByArticleName retrieves the part with the given (article, name) pair.
func (r *PartRepo) FindByArticleName(ctx context.Context, article, name string) (*part.Part, error) {
	return r.FindOne(ctx,
		r.baseSelect().Where(squirrel.Eq{"article": article, "name": name}).Limit(1),
		article+" / "+name,
	)
}

// GetMany loads several parts at once.
func (r *PartRepo) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*part.Part, error) {
	out := make(map[id.ID]*part.Part, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql, args, err := r.baseSelect().Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var parts []*part.Part
	if err := pgxscan.Select(ctx, r.querier(ctx), &parts, sql, args...); err != nil {
		return nil, fmt.Errorf("get parts: %w", err)
	}
	for _, p := range parts {
		out[p.ID] = p
	}
	return out, nil
}
