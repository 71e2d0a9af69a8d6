package catalog_repo

import (
	"ebase/internal/domain/repair"
	"ebase/internal/infrastructure/storage/postgres"
)

const replacementTable = "cat_replacements"

// ReplacementRepo implements repair.ReplacementRepository.
type ReplacementRepo struct {
	*BaseCatalogRepo[*repair.Replacement]
}

var _ repair.ReplacementRepository = (*ReplacementRepo)(nil)

// NewReplacementRepo creates a new loaner unit repository.
func NewReplacementRepo(txManager *postgres.TxManager) *ReplacementRepo {
	return &ReplacementRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			replacementTable, "replacement equipment",
			postgres.ExtractDBColumns[repair.Replacement](),
			[]string{"equipment_name", "serial_number"},
			"equipment_name, serial_number",
			func() *repair.Replacement { return &repair.Replacement{} },
		),
	}
}
