package acts_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/app"
	"ebase/internal/app/apptest"
	"ebase/internal/core/apperror"
	"ebase/internal/core/types"
	"ebase/internal/domain/acts"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/repair"
	"ebase/pkg/docx"
)

type fixture struct {
	env       *apptest.Env
	templates string
	docs      string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{templates: t.TempDir(), docs: t.TempDir()}
	f.env = apptest.New(t, func(o *app.Options) {
		o.TemplatesDir = f.templates
		o.DocsRoot = f.docs
	})
	require.NoError(t, os.WriteFile(filepath.Join(f.templates, "service_akt.docx"), acts.ServiceActTemplate(t), 0o644))
	return f
}

func (f *fixture) repair(t *testing.T, installed bool) *repair.Record {
	return f.repairOn(t, f.env.Card("ABC 2000", "SN 0042", installed))
}

func (f *fixture) repairOn(t *testing.T, card *equipment.Card) *repair.Record {
	env := f.env
	p := env.Part("F-100", "Фильтр", false)
	env.Supply(p.ID, 5, "")

	description := "Не включается"
	job := "Заменён фильтр"
	end := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	rec, err := env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		EquipmentAccountingID: card.AccountingID,
		BegDate:               time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		EndDate:               &end,
		Description:           &description,
		JobContent:            &job,
		Parts:                 []repair.PartUsage{{PartID: p.ID, Quantity: types.NewQuantity(2)}},
	})
	require.NoError(t, err)
	return rec
}

func TestGenerate_StoresActAndPath(t *testing.T) {
	f := newFixture(t)
	env := f.env
	rec := f.repair(t, true)

	path, err := env.Svc.Acts.Generate(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.docs, "service_akt", "ABC_2000", "service_akt_SN_0042_05.03.2025.docx"), path)

	doc, err := docx.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Акт от 05 марта 2025 г.", doc.Paragraphs()[0].Text())
	assert.Equal(t, "1. Фильтр (арт. F-100), 2 шт.", doc.Tables()[3].Rows()[0].Cells()[0].Text())

	stored, err := env.Svc.Repairs.GetByID(env.Ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RepairActPath)
	assert.Equal(t, path, *stored.RepairActPath)
	assert.Nil(t, stored.TransferInActPath)

	got, err := env.Svc.Acts.Download(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	events := env.Repos.Audit.Events(env.Ctx)
	require.NotEmpty(t, events)
	assert.Equal(t, audit.ActionGenerate, events[len(events)-1].Action)
}

func TestGenerate_PathUnsafeNames(t *testing.T) {
	f := newFixture(t)
	env := f.env
	rec := f.repairOn(t, env.Card("..", "SN 12/34", true))

	path, err := env.Svc.Acts.Generate(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.docs, "service_akt", "__", "service_akt_SN_12-34_05.03.2025.docx"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestGenerate_RegenerateKeepsPathAfterSave(t *testing.T) {
	f := newFixture(t)
	env := f.env
	rec := f.repair(t, true)

	path, err := env.Svc.Acts.Generate(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)

	stored, err := env.Svc.Repairs.GetByID(env.Ctx, rec.ID)
	require.NoError(t, err)
	_, err = env.Svc.Repairs.Save(env.Ctx, repair.SaveCommand{
		ID:                    &stored.ID,
		Version:               stored.Version,
		EquipmentAccountingID: stored.EquipmentAccountingID,
		BegDate:               stored.BegDate,
		EndDate:               stored.EndDate,
		Parts:                 stored.Parts,
	})
	require.NoError(t, err)

	got, err := env.Svc.Acts.Download(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestGenerate_NoInstallationSite(t *testing.T) {
	f := newFixture(t)
	rec := f.repair(t, false)

	_, err := f.env.Svc.Acts.Generate(f.env.Ctx, rec.ID, repair.ActRepair)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodePreconditionFailed))

	entries, err := os.ReadDir(f.docs)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written")
}

func TestGenerate_MissingTemplate(t *testing.T) {
	f := newFixture(t)
	rec := f.repair(t, true)

	_, err := f.env.Svc.Acts.Generate(f.env.Ctx, rec.ID, repair.ActTransferIn)
	assert.True(t, apperror.HasCode(err, apperror.CodeTemplate))

	stored, err := f.env.Svc.Repairs.GetByID(f.env.Ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TransferInActPath)
}

func TestDownload_NotGenerated(t *testing.T) {
	f := newFixture(t)
	env := f.env
	rec := f.repair(t, true)

	_, err := env.Svc.Acts.Download(env.Ctx, rec.ID, repair.ActTransferOut)
	assert.True(t, apperror.IsNotFound(err))

	path, err := env.Svc.Acts.Generate(env.Ctx, rec.ID, repair.ActRepair)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = env.Svc.Acts.Download(env.Ctx, rec.ID, repair.ActRepair)
	assert.True(t, apperror.IsNotFound(err), "file removed from disk")
}
