package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/pkg/logger"
)

// exportPage is the batch size Export reads the ledger with.
const exportPage = 1000

// Service is the single source of truth for on-hand quantities.
// It never opens transactions itself: callers (supply, shipment, repair) own the
// transaction boundary and the ledger joins it through the context.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock overrides the clock used for overdue recomputation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetQuantity returns the on-hand quantity of a lot; an absent lot holds zero.
func (s *Service) GetQuantity(ctx context.Context, lot entity.Lot) (types.Quantity, error) {
	e, err := s.repo.Get(ctx, entity.NewLot(lot.PartID, lot.ExpirationDate))
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get lot %s: %w", lot.PartID, err)
	}
	return e.Quantity, nil
}

// Adjust applies a signed delta to a lot.
// Positive deltas create the lot lazily. Negative deltas are rejected with
// INSUFFICIENT_STOCK when they would take the lot below zero; nothing is clamped.
func (s *Service) Adjust(ctx context.Context, lot entity.Lot, delta types.Quantity) error {
	lot = entity.NewLot(lot.PartID, lot.ExpirationDate)

	switch {
	case delta.IsZero():
		return nil
	case delta.IsPositive():
		if err := s.repo.Increment(ctx, lot, delta); err != nil {
			return fmt.Errorf("increment lot: %w", err)
		}
	default:
		ok, err := s.repo.Decrement(ctx, lot, delta.Neg())
		if err != nil {
			return fmt.Errorf("decrement lot: %w", err)
		}
		if !ok {
			available, err := s.GetQuantity(ctx, lot)
			if err != nil {
				return err
			}
			return apperror.NewInsufficientStock(
				lot.PartID.String(),
				lot.ExpirationString(),
				delta.Neg().String(),
				available.String(),
			)
		}
	}

	logger.Debug(ctx, "ledger adjusted",
		"part_id", lot.PartID,
		"expiration", lot.ExpirationString(),
		"delta", delta.String(),
	)
	return nil
}

// RecomputeOverdue flags every lot whose expiration date is before asOf.
func (s *Service) RecomputeOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	changed, err := s.repo.RecomputeOverdue(ctx, types.DateOf(asOf))
	if err != nil {
		return 0, fmt.Errorf("recompute overdue: %w", err)
	}
	if changed > 0 {
		logger.Info(ctx, "overdue flags updated", "rows", changed)
	}
	return changed, nil
}

// List returns ledger rows with overdue flags refreshed as of today.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[EntryView], error) {
	if _, err := s.RecomputeOverdue(ctx, s.now()); err != nil {
		return domain.ListResult[EntryView]{}, err
	}
	filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// Export returns every row matching filter, ignoring its pagination.
func (s *Service) Export(ctx context.Context, filter ListFilter) ([]EntryView, error) {
	filter.Limit = exportPage
	filter.Offset = 0

	var out []EntryView
	for {
		page, err := s.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < exportPage || int64(len(out)) >= page.TotalCount {
			return out, nil
		}
		filter.Offset += exportPage
	}
}

// PartAvailability returns the per-lot breakdown of a part.
func (s *Service) PartAvailability(ctx context.Context, partID id.ID) (Availability, error) {
	if _, err := s.RecomputeOverdue(ctx, s.now()); err != nil {
		return Availability{}, err
	}

	lots, err := s.repo.ListByPart(ctx, partID)
	if err != nil {
		return Availability{}, fmt.Errorf("list lots: %w", err)
	}

	a := Availability{PartID: partID, Lots: lots}
	for _, l := range lots {
		a.Total += l.Quantity
		if !l.IsOverdue {
			a.Usable += l.Quantity
		}
	}
	return a, nil
}

// Reconcile compares the ledger with supplies minus shipments per lot.
// An empty result means the ledger agrees with its document history.
func (s *Service) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	expected, err := s.repo.ExpectedBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("expected balances: %w", err)
	}
	actual, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger rows: %w", err)
	}

	want := make(map[entity.LotKey]types.Quantity, len(expected))
	for _, e := range expected {
		want[e.Key()] += e.Quantity
	}
	have := make(map[entity.LotKey]types.Quantity, len(actual))
	for _, e := range actual {
		have[e.Key()] += e.Quantity
	}

	var out []Discrepancy
	for k, w := range want {
		if h := have[k]; h != w {
			out = append(out, Discrepancy{Lot: k.Lot(), Expected: w, Actual: h})
		}
	}
	for k, h := range have {
		if _, ok := want[k]; !ok && !h.IsZero() {
			out = append(out, Discrepancy{Lot: k.Lot(), Expected: 0, Actual: h})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key(), out[j].Key()
		if a.PartID != b.PartID {
			return a.PartID.String() < b.PartID.String()
		}
		return a.Expiration < b.Expiration
	})

	if len(out) > 0 {
		logger.Warn(ctx, "ledger discrepancies found", "count", len(out))
	}
	return out, nil
}
