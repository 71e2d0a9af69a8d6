package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/repair"
	"ebase/internal/infrastructure/storage/postgres"
)

const (
	repairsTable         = "doc_repairs"
	repairPartsTable     = "doc_repair_parts"
	repairAccessoryTable = "doc_repair_accessories"
	repairShipmentCol    = "shipment_id"
)

var (
	repairPartCols      = []string{"repair_id", "line_no", "part_id", "expiration_date", "quantity"}
	repairAccessoryCols = []string{"repair_id", "line_no", "name", "quantity"}

	actPathCols = map[repair.ActKind]string{
		repair.ActRepair:      "repair_act_path",
		repair.ActTransferIn:  "transfer_in_act_path",
		repair.ActTransferOut: "transfer_out_act_path",
	}
)

// RepairRepo implements repair.Repository.
type RepairRepo struct {
	*BaseDocumentRepo[*repair.Record]
}

var _ repair.Repository = (*RepairRepo)(nil)

// NewRepairRepo creates a new repair repository.
// The shipment link and act paths have dedicated setters; a header save never overwrites them.
func NewRepairRepo(txManager *postgres.TxManager) *RepairRepo {
	return &RepairRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager,
			DocumentTable{
				Name:       repairsTable,
				Entity:     "repair",
				DateCol:    "beg_date",
				SearchCols: []string{"reason", "description", "engineer"},
				ManagedCols: []string{
					repairShipmentCol,
					actPathCols[repair.ActRepair],
					actPathCols[repair.ActTransferIn],
					actPathCols[repair.ActTransferOut],
				},
			},
			postgres.ExtractDBColumns[repair.Record](),
			func() *repair.Record { return &repair.Record{} },
		),
	}
}

// GetParts implements repair.Repository.
func (r *RepairRepo) GetParts(ctx context.Context, repairID id.ID) ([]repair.PartUsage, error) {
	var out []repair.PartUsage
	err := pgxscan.Select(ctx, r.querier(ctx), &out, `
		SELECT part_id, expiration_date, quantity
		FROM `+repairPartsTable+`
		WHERE repair_id = $1
		ORDER BY line_no
	`, repairID)
	if err != nil {
		return nil, fmt.Errorf("get repair parts: %w", err)
	}
	return out, nil
}

// SaveParts implements repair.Repository.
func (r *RepairRepo) SaveParts(ctx context.Context, repairID id.ID, parts []repair.PartUsage) error {
	rows := make([][]any, len(parts))
	for i, u := range parts {
		rows[i] = []any{repairID, i + 1, u.PartID, u.ExpirationDate, u.Quantity}
	}
	return r.replaceRows(ctx, repairPartsTable, repairPartCols, repairID, rows)
}

// GetAccessories implements repair.Repository.
func (r *RepairRepo) GetAccessories(ctx context.Context, repairID id.ID) ([]repair.AccessoryUsage, error) {
	var out []repair.AccessoryUsage
	err := pgxscan.Select(ctx, r.querier(ctx), &out, `
		SELECT name, quantity
		FROM `+repairAccessoryTable+`
		WHERE repair_id = $1
		ORDER BY line_no
	`, repairID)
	if err != nil {
		return nil, fmt.Errorf("get repair accessories: %w", err)
	}
	return out, nil
}

// SaveAccessories implements repair.Repository.
func (r *RepairRepo) SaveAccessories(ctx context.Context, repairID id.ID, items []repair.AccessoryUsage) error {
	rows := make([][]any, len(items))
	for i, a := range items {
		rows[i] = []any{repairID, i + 1, a.Name, a.Quantity}
	}
	return r.replaceRows(ctx, repairAccessoryTable, repairAccessoryCols, repairID, rows)
}

func (r *RepairRepo) replaceRows(ctx context.Context, table string, cols []string, repairID id.ID, rows [][]any) error {
	if _, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+table+" WHERE repair_id = $1", repairID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return r.txManager.CopyRows(ctx, table, cols, rows)
}

// SetShipment implements repair.Repository.
func (r *RepairRepo) SetShipment(ctx context.Context, repairID id.ID, shipmentID *id.ID) error {
	return r.setColumn(ctx, repairID, repairShipmentCol, shipmentID)
}

// SetActPath implements repair.Repository.
func (r *RepairRepo) SetActPath(ctx context.Context, repairID id.ID, kind repair.ActKind, path string) error {
	col, ok := actPathCols[kind]
	if !ok {
		return apperror.NewValidation(fmt.Sprintf("unknown act kind %q", kind)).WithField("kind")
	}
	return r.setColumn(ctx, repairID, col, path)
}

func (r *RepairRepo) setColumn(ctx context.Context, repairID id.ID, col string, value any) error {
	sql, args, err := r.Builder().
		Update(repairsTable).
		Set(col, value).
		Where(squirrel.Eq{"id": repairID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set %s: %w", col, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("repair", repairID.String())
	}
	return nil
}

// List implements repair.Repository.
func (r *RepairRepo) List(ctx context.Context, f repair.ListFilter) (domain.ListResult[*repair.Record], error) {
	q := r.listQuery(f.ListFilter, f.DateFrom, f.DateTo)
	if f.EquipmentAccountingID != nil {
		q = q.Where(squirrel.Eq{"equipment_accounting_id": *f.EquipmentAccountingID})
	}
	if f.OnlyOpen {
		q = q.Where(squirrel.Eq{"end_date": nil})
	}
	return r.page(ctx, q, f.ListFilter)
}
