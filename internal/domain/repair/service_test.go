package repair_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/app/apptest"
	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/repair"
)

var begDate = time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

func TestSave_TwoLotsOfOnePartShipAsSeparateLines(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("CaTr", "Картридж", true)
	env.Supply(p.ID, 5, "2026-01-01")
	env.Supply(p.ID, 5, "2027-01-01")
	card := env.Card("ABC 2000", "SN-1", true)

	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts: []repair.PartUsage{
			{PartID: p.ID, ExpirationDate: apptest.Date("2026-01-01"), Quantity: types.NewQuantity(3)},
			{PartID: p.ID, ExpirationDate: apptest.Date("2027-01-01"), Quantity: types.NewQuantity(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantity(2), env.Qty(p.ID, "2026-01-01"))
	assert.Equal(t, types.NewQuantity(3), env.Qty(p.ID, "2027-01-01"))

	require.NotNil(t, rec.ShipmentID)
	doc, err := env.Svc.Shipments.GetByID(env.Ctx, *rec.ShipmentID)
	require.NoError(t, err)
	assert.Len(t, doc.Lines, 2)
	assert.Equal(t, rec.ID, *doc.RepairID)

	stored, err := env.Svc.Repairs.GetByID(env.Ctx, rec.ID)
	require.NoError(t, err)
	qm := stored.QuantityMap()
	require.Len(t, qm, 1)
	assert.Len(t, qm[p.ID], 2)
}

func TestSave_RevisesAndReversesShipment(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 10, "")
	card := env.Card("ABC 2000", "SN-1", true)

	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(6), env.Qty(p.ID, ""))
	shipmentID := *rec.ShipmentID

	rec, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		ID:                    &rec.ID,
		Version:               rec.Version,
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantity(9), env.Qty(p.ID, ""))
	assert.Equal(t, shipmentID, *rec.ShipmentID, "the same shipment is revised")

	rec, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		ID:                    &rec.ID,
		Version:               rec.Version,
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
	})
	require.NoError(t, err)
	assert.Nil(t, rec.ShipmentID)
	assert.Equal(t, types.NewQuantity(10), env.Qty(p.ID, ""))

	_, err = env.Svc.Shipments.GetByID(env.Ctx, shipmentID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSave_InsufficientStockRollsBackRepair(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 1, "")
	card := env.Card("ABC 2000", "SN-1", true)

	_, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts: []repair.PartUsage{
			{PartID: p.ID, Quantity: types.NewQuantity(1)},
		},
		Accessories: []repair.AccessoryUsage{{Name: "Кабель", Quantity: types.NewQuantity(1)}},
	})
	require.NoError(t, err)

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(1)}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "parts[0].quantity", appErr.Details["field"])

	res, err := env.Svc.Repairs.List(env.Ctx, repair.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount, "the failed repair is not stored")

	shipments, err := env.Svc.Shipments.List(env.Ctx, shipment.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, shipments.TotalCount)
}

func TestSave_Validation(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	card := env.Card("ABC 2000", "SN-1", true)

	_, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: id.New(),
		BegDate:               begDate,
	})
	assert.True(t, apperror.IsNotFound(err), "unknown equipment")

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		Parts: []repair.PartUsage{
			{PartID: p.ID, Quantity: types.NewQuantity(1)},
			{PartID: p.ID, Quantity: types.NewQuantity(2)},
		},
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "parts[1].expirationDate", appErr.Details["field"])

	end := begDate.AddDate(0, 0, -1)
	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		EndDate:               &end,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSave_StaleVersion(t *testing.T) {
	env := apptest.New(t)
	card := env.Card("ABC 2000", "SN-1", true)

	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{EquipmentAccountingID: card.AccountingID, BegDate: begDate})
	require.NoError(t, err)
	stale := rec.Version

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{ID: &rec.ID, Version: stale, EquipmentAccountingID: card.AccountingID, BegDate: begDate})
	require.NoError(t, err)

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{ID: &rec.ID, Version: stale, EquipmentAccountingID: card.AccountingID, BegDate: begDate})
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestReplacement_Lifecycle(t *testing.T) {
	env := apptest.New(t)
	card := env.Card("ABC 2000", "SN-1", true)
	repl := repair.NewReplacement("Анализатор XYZ", "R-1", []string{"Кабель"})
	require.NoError(t, env.Svc.Repairs.Replacements().Create(env.Ctx, repl))

	first, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	got, err := env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, repair.StateWithClient, got.State)
	assert.Equal(t, first.ID, *got.RepairID)

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeAlreadyInUse, appErr.Code)
	assert.Equal(t, "replacementId", appErr.Details["field"])

	returned, err := env.Svc.Repairs.ReturnReplacement(env.Ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, repl.ID, *returned.ReplacementID, "the repair remembers the loaner for the transfer-out act")

	got, err = env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, repair.StateInOffice, got.State)
	assert.Nil(t, got.RepairID)

	second, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err, "a returned loaner can be handed out again")

	got, err = env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.RepairID)
}

func TestReplacement_ClosedHolderReleasesClaim(t *testing.T) {
	env := apptest.New(t)
	card := env.Card("ABC 2000", "SN-1", true)
	repl := repair.NewReplacement("Анализатор XYZ", "R-1", nil)
	require.NoError(t, env.Svc.Repairs.Replacements().Create(env.Ctx, repl))

	first, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	closed, err := env.Svc.Repairs.Close(env.Ctx, first.ID, begDate.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())

	_, err = env.Svc.Repairs.Close(env.Ctx, first.ID, begDate.AddDate(0, 0, 4))
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	second, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	got, err := env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.RepairID)

	end := begDate.AddDate(0, 0, 1)
	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		EndDate:               &end,
		ReplacementID:         &repl.ID,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "closed repairs cannot take a loaner")

	require.NoError(t, env.Svc.Repairs.Delete(env.Ctx, second.ID))

	reopened, err := env.Svc.Repairs.Reopen(env.Ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, reopened.IsOpen())
}

func TestReopen_LoanerHeldByAnotherOpenRepair(t *testing.T) {
	env := apptest.New(t)
	card := env.Card("ABC 2000", "SN-1", true)
	repl := repair.NewReplacement("Анализатор XYZ", "R-1", nil)
	require.NoError(t, env.Svc.Repairs.Replacements().Create(env.Ctx, repl))

	first, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)
	_, err = env.Svc.Repairs.Close(env.Ctx, first.ID, begDate.AddDate(0, 0, 3))
	require.NoError(t, err)

	second, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	_, err = env.Svc.Repairs.Reopen(env.Ctx, first.ID)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeAlreadyInUse, appErr.Code)
	assert.Equal(t, "replacementId", appErr.Details["field"])

	stored, err := env.Svc.Repairs.GetByID(env.Ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsOpen(), "a rejected reopen leaves the repair closed")

	got, err := env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.RepairID)
}

func TestSave_KeptLoanerTakenByAnotherOpenRepair(t *testing.T) {
	env := apptest.New(t)
	card := env.Card("ABC 2000", "SN-1", true)
	repl := repair.NewReplacement("Анализатор XYZ", "R-1", nil)
	require.NoError(t, env.Svc.Repairs.Replacements().Create(env.Ctx, repl))

	first, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	// The first repair lets the unit go; a second repair takes it.
	_, err = env.Svc.Repairs.ReturnReplacement(env.Ctx, first.ID)
	require.NoError(t, err)
	second, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.NoError(t, err)

	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		ID:                    &first.ID,
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyInUse))

	got, err := env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.RepairID)
}

func TestDelete_ReversesEverything(t *testing.T) {
	env := apptest.New(t)
	p := env.Part("X", "Деталь", false)
	env.Supply(p.ID, 5, "")
	card := env.Card("ABC 2000", "SN-1", true)
	repl := repair.NewReplacement("Анализатор XYZ", "R-1", nil)
	require.NoError(t, env.Svc.Repairs.Replacements().Create(env.Ctx, repl))

	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               begDate,
		ReplacementID:         &repl.ID,
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(5)}},
	})
	require.NoError(t, err)
	assert.Zero(t, env.Qty(p.ID, ""))

	require.NoError(t, env.Svc.Repairs.Delete(env.Ctx, rec.ID))
	assert.Equal(t, types.NewQuantity(5), env.Qty(p.ID, ""))

	got, err := env.Svc.Repairs.Replacements().GetByID(env.Ctx, repl.ID)
	require.NoError(t, err)
	assert.Equal(t, repair.StateInOffice, got.State)

	_, err = env.Svc.Repairs.GetByID(env.Ctx, rec.ID)
	assert.True(t, apperror.IsNotFound(err))
}
