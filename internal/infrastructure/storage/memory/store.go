// Package memory is an in-process storage backend. Transactions take the store
// lock for their whole duration and roll back by restoring a snapshot, so the
// backend gives serializable isolation at the cost of concurrency.
// Used for local runs (STORAGE_DRIVER=memory) and domain tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/domain/audit"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/documents/shipment"
	"ebase/internal/domain/documents/supply"
	"ebase/internal/domain/equipment"
	"ebase/internal/domain/registers/stock"
	"ebase/internal/domain/repair"
)

type state struct {
	parts        map[id.ID]part.Part
	stock        map[entity.LotKey]stock.Entry
	supplies     map[id.ID]supply.Supply
	shipments    map[id.ID]shipment.Shipment
	lines        map[id.ID][]shipment.Line
	repairs      map[id.ID]repair.Record
	usages       map[id.ID][]repair.PartUsage
	accessories  map[id.ID][]repair.AccessoryUsage
	replacements map[id.ID]repair.Replacement
	cards        map[id.ID]equipment.Card
	audit        []audit.Event
}

func newState() *state {
	return &state{
		parts:        map[id.ID]part.Part{},
		stock:        map[entity.LotKey]stock.Entry{},
		supplies:     map[id.ID]supply.Supply{},
		shipments:    map[id.ID]shipment.Shipment{},
		lines:        map[id.ID][]shipment.Line{},
		repairs:      map[id.ID]repair.Record{},
		usages:       map[id.ID][]repair.PartUsage{},
		accessories:  map[id.ID][]repair.AccessoryUsage{},
		replacements: map[id.ID]repair.Replacement{},
		cards:        map[id.ID]equipment.Card{},
	}
}

// clone copies the maps. Slice values are never mutated in place, so sharing them is safe.
func (s *state) clone() *state {
	return &state{
		parts:        maps.Clone(s.parts),
		stock:        maps.Clone(s.stock),
		supplies:     maps.Clone(s.supplies),
		shipments:    maps.Clone(s.shipments),
		lines:        maps.Clone(s.lines),
		repairs:      maps.Clone(s.repairs),
		usages:       maps.Clone(s.usages),
		accessories:  maps.Clone(s.accessories),
		replacements: maps.Clone(s.replacements),
		cards:        maps.Clone(s.cards),
		audit:        append([]audit.Event(nil), s.audit...),
	}
}

// Store holds all tables of the backend.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

type txMarker struct{ store *Store }

func (s *Store) inTx(ctx context.Context) bool {
	m, ok := ctx.Value(txKey{}).(*txMarker)
	return ok && m.store == s
}

// do runs fn against the live state, taking the store lock unless the caller's
// transaction already holds it.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// TxManager implements tx.Manager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction runs fn holding the store lock. Nested calls join the outer
// transaction; an error from the outermost fn restores the state it started from.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.store.inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snapshot := m.store.data.clone()
	defer func() {
		if r := recover(); r != nil {
			m.store.data = snapshot
			panic(r)
		}
		if err != nil {
			m.store.data = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, &txMarker{store: m.store}))
}

// Repositories bundles every repository of the backend.
type Repositories struct {
	Parts        *PartRepo
	Stock        *StockRepo
	Supplies     *SupplyRepo
	Shipments    *ShipmentRepo
	Repairs      *RepairRepo
	Replacements *ReplacementRepo
	Directory    *Directory
	Audit        *AuditLog
	TxManager    *TxManager
}

// NewRepositories wires all repositories to one store.
func NewRepositories(store *Store) *Repositories {
	return &Repositories{
		Parts:        &PartRepo{store: store},
		Stock:        &StockRepo{store: store},
		Supplies:     &SupplyRepo{store: store},
		Shipments:    &ShipmentRepo{store: store},
		Repairs:      &RepairRepo{store: store},
		Replacements: &ReplacementRepo{store: store},
		Directory:    &Directory{store: store},
		Audit:        &AuditLog{store: store},
		TxManager:    NewTxManager(store),
	}
}
