package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/infrastructure/storage/postgres"
)

const shipmentLinesTable = "doc_shipment_lines"

var shipmentLineCols = []string{"shipment_id", "line_no", "part_id", "expiration_date", "quantity"}

// ShipmentRepo implements shipment.Repository.
type ShipmentRepo struct {
	*BaseDocumentRepo[*shipment.Shipment]
}

var _ shipment.Repository = (*ShipmentRepo)(nil)

// NewShipmentRepo creates a new shipment repository.
func NewShipmentRepo(txManager *postgres.TxManager) *ShipmentRepo {
	return &ShipmentRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txManager,
			DocumentTable{
				Name:       "doc_shipments",
				Entity:     "shipment",
				DateCol:    "shipment_date",
				SearchCols: []string{"doc_num", "comment"},
			},
			postgres.ExtractDBColumns[shipment.Shipment](),
			func() *shipment.Shipment { return &shipment.Shipment{} },
		),
	}
}

// GetLines implements shipment.Repository.
func (r *ShipmentRepo) GetLines(ctx context.Context, docID id.ID) ([]shipment.Line, error) {
	sql, args, err := r.Builder().
		Select(shipmentLineCols[1:]...).
		From(shipmentLinesTable).
		Where(squirrel.Eq{"shipment_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []shipment.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines implements shipment.Repository.
func (r *ShipmentRepo) SaveLines(ctx context.Context, docID id.ID, lines []shipment.Line) error {
	if _, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+shipmentLinesTable+" WHERE shipment_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	rows := make([][]any, len(lines))
	for i, l := range lines {
		rows[i] = []any{docID, l.LineNo, l.PartID, l.ExpirationDate, l.Quantity}
	}
	return r.txManager.CopyRows(ctx, shipmentLinesTable, shipmentLineCols, rows)
}

// List implements shipment.Repository.
func (r *ShipmentRepo) List(ctx context.Context, f shipment.ListFilter) (domain.ListResult[*shipment.Shipment], error) {
	q := r.listQuery(f.ListFilter, f.DateFrom, f.DateTo)
	if f.RepairID != nil {
		q = q.Where(squirrel.Eq{"repair_id": *f.RepairID})
	}
	if f.PartID != nil {
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM "+shipmentLinesTable+" l WHERE l.shipment_id = doc_shipments.id AND l.part_id = ?)",
			*f.PartID,
		))
	}
	return r.page(ctx, q, f.ListFilter)
}
