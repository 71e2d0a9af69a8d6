package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/repair"
)

func TestRepairUpdate_SkipsManagedColumns(t *testing.T) {
	repo := NewRepairRepo(nil)
	rec := &repair.Record{
		BaseDocument:          entity.NewBaseDocument("tester"),
		EquipmentAccountingID: id.New(),
		BegDate:               time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
	}

	sql, args, err := repo.updateQuery(rec)
	require.NoError(t, err)

	for _, col := range []string{"shipment_id", "repair_act_path", "transfer_in_act_path", "transfer_out_act_path", "created_at", "created_by"} {
		assert.NotContains(t, sql, col+" = ", col)
	}
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	assert.Equal(t, 1, args[len(args)-1], "expected version is the last argument")
}

func TestShipmentList_Filters(t *testing.T) {
	repo := NewShipmentRepo(nil)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	q := repo.listQuery(domain.ListFilter{Search: "SH-"}, &from, nil)
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, version, created_at, updated_at, created_by, updated_by, doc_num, shipment_date, repair_id, comment, comment_is_auto "+
			"FROM doc_shipments WHERE (doc_num ILIKE $1 OR comment ILIKE $2) AND shipment_date >= $3",
		sql)
	assert.Equal(t, []any{"%SH-%", "%SH-%", from}, args)
}
