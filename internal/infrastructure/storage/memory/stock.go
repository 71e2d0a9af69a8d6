package memory

import (
	"context"
	"sort"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct{ store *Store }

var _ stock.Repository = (*StockRepo)(nil)

// Get implements stock.Repository.
func (r *StockRepo) Get(ctx context.Context, lot entity.Lot) (stock.Entry, error) {
	var out stock.Entry
	err := r.store.do(ctx, func(st *state) error {
		e, ok := st.stock[lot.Key()]
		if !ok {
			return apperror.NewNotFound("stock lot", lot.PartID.String()).
				WithDetail("expirationDate", lot.ExpirationString())
		}
		out = e
		return nil
	})
	return out, err
}

// Increment implements stock.Repository.
func (r *StockRepo) Increment(ctx context.Context, lot entity.Lot, qty types.Quantity) error {
	return r.store.do(ctx, func(st *state) error {
		k := lot.Key()
		e, ok := st.stock[k]
		if !ok {
			e = stock.Entry{Lot: entity.NewLot(lot.PartID, lot.ExpirationDate)}
		}
		e.Quantity += qty
		e.UpdatedAt = time.Now().UTC()
		st.stock[k] = e
		return nil
	})
}

// Decrement implements stock.Repository.
func (r *StockRepo) Decrement(ctx context.Context, lot entity.Lot, qty types.Quantity) (bool, error) {
	var done bool
	err := r.store.do(ctx, func(st *state) error {
		k := lot.Key()
		e, ok := st.stock[k]
		if !ok || e.Quantity < qty {
			return nil
		}
		e.Quantity -= qty
		e.UpdatedAt = time.Now().UTC()
		st.stock[k] = e
		done = true
		return nil
	})
	return done, err
}

// RecomputeOverdue implements stock.Repository.
func (r *StockRepo) RecomputeOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var changed int64
	today := types.DateOf(asOf)
	err := r.store.do(ctx, func(st *state) error {
		for k, e := range st.stock {
			overdue := e.ExpirationDate != nil && e.ExpirationDate.Before(today)
			if overdue != e.IsOverdue {
				e.IsOverdue = overdue
				st.stock[k] = e
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// List implements stock.Repository.
func (r *StockRepo) List(ctx context.Context, f stock.ListFilter) (domain.ListResult[stock.EntryView], error) {
	var items []stock.EntryView
	err := r.store.do(ctx, func(st *state) error {
		for _, e := range st.stock {
			if f.PartID != nil && e.PartID != *f.PartID {
				continue
			}
			if f.OnlyPositive && !e.Quantity.IsPositive() {
				continue
			}
			if f.OnlyOverdue && !e.IsOverdue {
				continue
			}
			v := stock.EntryView{Entry: e}
			if p, ok := st.parts[e.PartID]; ok {
				v.Article, v.Name, v.Unit = p.Article, p.Name, p.Unit
			}
			if !matches(f.Search, v.Article, v.Name) {
				continue
			}
			items = append(items, v)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[stock.EntryView]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.PartID != b.PartID {
			return a.PartID.String() < b.PartID.String()
		}
		return expirationLess(a.ExpirationDate, b.ExpirationDate)
	})
	return domain.Paginate(items, f.ListFilter), nil
}

// ListByPart implements stock.Repository.
func (r *StockRepo) ListByPart(ctx context.Context, partID id.ID) ([]stock.Entry, error) {
	var out []stock.Entry
	err := r.store.do(ctx, func(st *state) error {
		for _, e := range st.stock {
			if e.PartID == partID {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return expirationLess(out[i].ExpirationDate, out[j].ExpirationDate)
	})
	return out, err
}

// All implements stock.Repository.
func (r *StockRepo) All(ctx context.Context) ([]stock.Entry, error) {
	var out []stock.Entry
	err := r.store.do(ctx, func(st *state) error {
		for _, e := range st.stock {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// ExpectedBalances implements stock.Repository: supplies minus shipment lines per lot.
func (r *StockRepo) ExpectedBalances(ctx context.Context) ([]entity.LotQuantity, error) {
	totals := map[entity.LotKey]types.Quantity{}
	err := r.store.do(ctx, func(st *state) error {
		for _, s := range st.supplies {
			totals[s.Lot().Key()] += s.Quantity
		}
		for _, lines := range st.lines {
			for _, l := range lines {
				totals[l.Lot().Key()] -= l.Quantity
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]entity.LotQuantity, 0, len(totals))
	for k, q := range totals {
		out = append(out, entity.LotQuantity{Lot: k.Lot(), Quantity: q})
	}
	return out, nil
}

// expirationLess orders undated lots first, then by date.
func expirationLess(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}
