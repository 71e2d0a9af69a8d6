// Package apptest builds a fully wired service layer over the in-memory backend for tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ebase/internal/app"
	appctx "ebase/internal/core/context"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/documents/supply"
	"ebase/internal/domain/equipment"
	"ebase/internal/infrastructure/storage/memory"
)

// Env is a test environment.
type Env struct {
	T     *testing.T
	Ctx   context.Context
	Svc   *app.Services
	Repos *memory.Repositories
}

// New creates an environment with an empty store.
func New(t *testing.T, opts ...func(*app.Options)) *Env {
	t.Helper()
	o := app.Options{
		TemplatesDir: t.TempDir(),
		DocsRoot:     t.TempDir(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	backend, repos := app.MemoryBackend(memory.NewStore())
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "tester", UserName: "Tester"})
	return &Env{
		T:     t,
		Ctx:   ctx,
		Svc:   app.NewServices(backend, o),
		Repos: repos,
	}
}

// Part creates a catalog part.
func (e *Env) Part(article, name string, isExpiration bool) *part.Part {
	e.T.Helper()
	p := part.NewPart(article, name, "шт.", isExpiration)
	require.NoError(e.T, e.Svc.Parts.Create(e.Ctx, p))
	return p
}

// Supply records a supply of qty units; exp is YYYY-MM-DD or empty.
func (e *Env) Supply(partID id.ID, qty int64, exp string) *supply.Supply {
	e.T.Helper()
	doc, err := e.Svc.Supplies.RecordSupply(e.Ctx, supply.RecordCommand{
		PartID:         partID,
		Quantity:       types.NewQuantity(qty),
		ExpirationDate: Date(exp),
	})
	require.NoError(e.T, err)
	return doc
}

// Qty returns the ledger quantity of a lot.
func (e *Env) Qty(partID id.ID, exp string) types.Quantity {
	e.T.Helper()
	q, err := e.Svc.Ledger.GetQuantity(e.Ctx, entity.NewLot(partID, Date(exp)))
	require.NoError(e.T, err)
	return q
}

// Card registers an equipment card. Without a site the card has no department.
func (e *Env) Card(shortName, serial string, installed bool) *equipment.Card {
	e.T.Helper()
	inn := "7701234567"
	card := equipment.Card{
		AccountingID: id.New(),
		FullName:     shortName + " (полное наименование)",
		ShortName:    shortName,
		SerialNumber: serial,
		Client:       &equipment.Client{ID: id.New(), Name: "ООО Ромашка", INN: &inn},
	}
	if installed {
		card.Department = &equipment.Department{ID: id.New(), Name: "Лаборатория"}
	}
	require.NoError(e.T, e.Repos.Directory.Put(e.Ctx, card))
	return &card
}

// Date parses YYYY-MM-DD; empty gives nil.
func Date(s string) *time.Time {
	if s == "" {
		return nil
	}
	return types.MustDate(s)
}
