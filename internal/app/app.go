// Package app assembles domain services over a storage backend.
package app

import (
	"time"

	"ebase/internal/core/numerator"
	"ebase/internal/core/tx"
	"ebase/internal/domain/acts"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/documents/supply"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/registers/stock"
	"ebase/internal/domain/repair"
	"ebase/internal/infrastructure/storage/memory"
)

// Backend is the set of repositories services are built on.
type Backend struct {
	TxManager    tx.Manager
	Parts        part.Repository
	Stock        stock.Repository
	Supplies     supply.Repository
	Shipments    shipment.Repository
	Repairs      repair.Repository
	Replacements repair.ReplacementRepository
	Directory    equipment.Directory
	Audit        audit.Recorder
	Numerator    numerator.Generator
}

// Options tune service construction.
type Options struct {
	TemplatesDir string
	DocsRoot     string
	// Clock drives overdue recomputation; defaults to time.Now.
	Clock func() time.Time
}

// Services is the assembled domain layer.
type Services struct {
	Parts     *part.Service
	Ledger    *stock.Service
	Supplies  *supply.Service
	Shipments *shipment.Service
	Repairs   *repair.Service
	Acts      *acts.Generator
	Directory equipment.Directory
}

// NewServices wires every service to the backend.
func NewServices(b Backend, opts Options) *Services {
	parts := part.NewService(b.Parts, b.TxManager)

	ledger := stock.NewService(b.Stock)
	if opts.Clock != nil {
		ledger.WithClock(opts.Clock)
	}

	supplies := supply.NewService(b.Supplies, parts, ledger, b.TxManager, b.Audit)

	shipments := shipment.NewService(shipment.Config{
		Repo:      b.Shipments,
		Parts:     parts,
		Ledger:    ledger,
		Numerator: b.Numerator,
		TxManager: b.TxManager,
		Audit:     b.Audit,
	})
	shipments.SetDescriber(repair.NewCommentBuilder(b.Repairs, b.Directory))

	repairs := repair.NewService(repair.Config{
		Repo:         b.Repairs,
		Replacements: b.Replacements,
		Shipments:    shipments,
		Directory:    b.Directory,
		TxManager:    b.TxManager,
		Audit:        b.Audit,
	})

	generator := acts.NewGenerator(acts.Config{
		Repairs:      b.Repairs,
		Replacements: b.Replacements,
		Parts:        parts,
		Directory:    b.Directory,
		TxManager:    b.TxManager,
		Audit:        b.Audit,
		TemplatesDir: opts.TemplatesDir,
		DocsRoot:     opts.DocsRoot,
	})

	return &Services{
		Parts:     parts,
		Ledger:    ledger,
		Supplies:  supplies,
		Shipments: shipments,
		Repairs:   repairs,
		Acts:      generator,
		Directory: b.Directory,
	}
}

// MemoryBackend builds a backend over an in-memory store.
func MemoryBackend(store *memory.Store) (Backend, *memory.Repositories) {
	repos := memory.NewRepositories(store)
	return Backend{
		TxManager:    repos.TxManager,
		Parts:        repos.Parts,
		Stock:        repos.Stock,
		Supplies:     repos.Supplies,
		Shipments:    repos.Shipments,
		Repairs:      repos.Repairs,
		Replacements: repos.Replacements,
		Directory:    repos.Directory,
		Audit:        repos.Audit,
		Numerator:    numerator.NewMemoryGenerator(),
	}, repos
}
