package shipment_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/app/apptest"
	"ebase/internal/core/apperror"
	"ebase/internal/core/types"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/repair"
)

func TestRecordShipment_SupplyShipReverse(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("CaTr", "Картридж", true)
	env.Supply(p.ID, 10, "2026-01-01")

	doc, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(6), env.Qty(p.ID, "2026-01-01"))
	assert.Equal(t, shipment.DefaultDocNum, doc.DocNum)

	require.NoError(t, env.Svc.Shipments.ReverseShipment(env.Ctx, doc.ID))
	assert.Equal(t, types.NewQuantity(10), env.Qty(p.ID, "2026-01-01"))

	_, err = env.Svc.Shipments.GetByID(env.Ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordShipment_InsufficientStockPersistsNothing(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 6, "")

	_, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(20)}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "lines[0].quantity", appErr.Details["field"])
	assert.Equal(t, 1, appErr.Details["lineNo"])
	assert.Equal(t, "6", appErr.Details["available"])

	assert.Equal(t, types.NewQuantity(6), env.Qty(p.ID, ""))
	res, err := env.Svc.Shipments.List(env.Ctx, shipment.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestRecordShipment_LinesOfOneLotAreSummed(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 5, "")

	_, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{
			{PartID: p.ID, Quantity: types.NewQuantity(3)},
			{PartID: p.ID, Quantity: types.NewQuantity(3)},
		},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, types.NewQuantity(5), env.Qty(p.ID, ""))
}

func TestRecordShipment_MultiLotAllOrNothing(t *testing.T) {
	env := apptest.New(t)
	a := env.Part("A", "Деталь A", false)
	b := env.Part("B", "Деталь B", true)
	env.Supply(a.ID, 5, "")
	env.Supply(b.ID, 1, "2026-01-01")

	_, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{
			{PartID: a.ID, Quantity: types.NewQuantity(2)},
			{PartID: b.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(2)},
		},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "lines[1].quantity", appErr.Details["field"])

	assert.Equal(t, types.NewQuantity(5), env.Qty(a.ID, ""), "first line is not taken either")
	assert.Equal(t, types.NewQuantity(1), env.Qty(b.ID, "2026-01-01"))
}

func TestRecordShipment_LineValidation(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("CaTr", "Картридж", true)
	env.Supply(p.ID, 5, "2026-01-01")

	cases := []struct {
		name  string
		lines []shipment.LineInput
		code  string
		field string
	}{
		{
			name:  "zero quantity",
			lines: []shipment.LineInput{{PartID: p.ID, ExpirationDate: apptest.Date("2026-01-01")}},
			code:  apperror.CodeValidation,
			field: "lines[0].quantity",
		},
		{
			name:  "missing expiration",
			lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(1)}},
			code:  apperror.CodeValidation,
			field: "lines[0].expirationDate",
		},
		{
			name:  "no lines",
			lines: nil,
			code:  apperror.CodeValidation,
			field: "lines",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{Lines: tc.lines})
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.field, appErr.Details["field"])
		})
	}
	assert.Equal(t, types.NewQuantity(5), env.Qty(p.ID, "2026-01-01"))
}

func TestReviseShipment_AppliesDeltasOnly(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("CaTr", "Картридж", true)
	env.Supply(p.ID, 10, "2026-01-01")
	env.Supply(p.ID, 10, "2027-01-01")

	doc, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(4)}},
	})
	require.NoError(t, err)

	// another movement on the same lot must survive the revision
	env.Supply(p.ID, 1, "2026-01-01")

	revised, err := env.Svc.Shipments.ReviseShipment(env.Ctx, doc.ID, shipment.ReviseCommand{
		Lines: []shipment.LineInput{
			{PartID: p.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(1)},
			{PartID: p.ID, ExpirationDate: apptest.Date("2027-01-01"), Quantity: types.NewQuantity(5)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, revised.Lines, 2)
	assert.Equal(t, 2, revised.Version)

	assert.Equal(t, types.NewQuantity(10), env.Qty(p.ID, "2026-01-01"))
	assert.Equal(t, types.NewQuantity(5), env.Qty(p.ID, "2027-01-01"))

	got, err := env.Svc.Shipments.GetByID(env.Ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}

func TestReviseShipment_RejectedRevisionKeepsEverything(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 5, "")

	doc, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(2)}},
	})
	require.NoError(t, err)

	// 2 shipped + 3 on hand: asking for 6 needs 4 more
	_, err = env.Svc.Shipments.ReviseShipment(env.Ctx, doc.ID, shipment.ReviseCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(6)}},
	})
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, types.NewQuantity(3), env.Qty(p.ID, ""))
	got, err := env.Svc.Shipments.GetByID(env.Ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, types.NewQuantity(2), got.Lines[0].Quantity)

	// the full remainder is fine
	_, err = env.Svc.Shipments.ReviseShipment(env.Ctx, doc.ID, shipment.ReviseCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(5)}},
	})
	require.NoError(t, err)
	assert.Zero(t, env.Qty(p.ID, ""))
}

func TestRepairShipment_NumberedAndDescribed(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 5, "")
	card := env.Card("ABC 2000", "SN-1", true)

	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(1)}},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.ShipmentID)

	doc, err := env.Svc.Shipments.GetByID(env.Ctx, *rec.ShipmentID)
	require.NoError(t, err)
	assert.Equal(t, "SH-2025-00001", doc.DocNum)
	require.NotNil(t, doc.Comment)
	assert.True(t, doc.CommentIsAuto)
	assert.Equal(t, fmt.Sprintf("Ремонт: ABC 2000 s/n SN-1; ООО Ромашка; Лаборатория; %s", "04.03.2025"), *doc.Comment)

	// a user comment is kept on later revisions
	note := "Передано инженеру"
	_, err = env.Svc.Shipments.ReviseShipment(env.Ctx, doc.ID, shipment.ReviseCommand{
		Lines:   []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(2)}},
		Comment: &note,
	})
	require.NoError(t, err)
	doc, err = env.Svc.Shipments.ReviseShipment(env.Ctx, doc.ID, shipment.ReviseCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, note, *doc.Comment)
	assert.False(t, doc.CommentIsAuto)
}

func TestRecordShipment_Boundary(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 6, "")

	_, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(7)}},
	})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, types.NewQuantity(6), env.Qty(p.ID, ""))

	_, err = env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		Lines: []shipment.LineInput{{PartID: p.ID, Quantity: types.NewQuantity(6)}},
	})
	require.NoError(t, err)
	assert.Zero(t, env.Qty(p.ID, ""))
}

func TestReverseShipment_MultiLotRoundTrip(t *testing.T) {
	env := apptest.New(t)
	a := env.Part("A", "Деталь A", true)
	b := env.Part("B", "Деталь B", false)
	env.Supply(a.ID, 7, "2026-01-01")
	env.Supply(a.ID, 3, "2027-01-01")
	env.Supply(b.ID, 4, "")

	doc, err := env.Svc.Shipments.RecordShipment(env.Ctx, shipment.RecordCommand{
		DocNum: "17/25",
		Lines: []shipment.LineInput{
			{PartID: a.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(2)},
			{PartID: a.ID, ExpirationDate: apptest.Date("2027-01-01"), Quantity: types.NewQuantity(3)},
			{PartID: b.ID, Quantity: types.NewQuantity(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "17/25", doc.DocNum)
	assert.Equal(t, types.NewQuantity(5), env.Qty(a.ID, "2026-01-01"))
	assert.Zero(t, env.Qty(a.ID, "2027-01-01"))

	require.NoError(t, env.Svc.Shipments.ReverseShipment(env.Ctx, doc.ID))
	assert.Equal(t, types.NewQuantity(7), env.Qty(a.ID, "2026-01-01"))
	assert.Equal(t, types.NewQuantity(3), env.Qty(a.ID, "2027-01-01"))
	assert.Equal(t, types.NewQuantity(4), env.Qty(b.ID, ""))

	diffs, err := env.Svc.Ledger.Reconcile(env.Ctx)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}
