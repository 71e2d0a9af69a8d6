// Package register_repo provides the PostgreSQL implementation of the part ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ebase/internal/core/apperror"
	"ebase/internal/core/entity"
	"ebase/internal/core/id"
	"ebase/internal/core/types"
	"ebase/internal/domain"
	"ebase/internal/domain/registers/stock"
	"ebase/internal/infrastructure/storage/postgres"
)

const stockTable = "reg_part_stock"

var entryCols = []string{"s.part_id", "s.expiration_date", "s.quantity", "s.is_overdue", "s.updated_at"}

// StockRepo implements stock.Repository over reg_part_stock.
// The table carries UNIQUE NULLS NOT DISTINCT (part_id, expiration_date) and CHECK (quantity >= 0).
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// lotWhere matches exactly one lot; the undated lot compares with IS NULL.
func lotWhere(lot entity.Lot) squirrel.Eq {
	where := squirrel.Eq{"part_id": lot.PartID}
	if lot.ExpirationDate == nil {
		where["expiration_date"] = nil
	} else {
		where["expiration_date"] = *lot.ExpirationDate
	}
	return where
}

// Get implements stock.Repository.
func (r *StockRepo) Get(ctx context.Context, lot entity.Lot) (stock.Entry, error) {
	var e stock.Entry
	sql, args, err := r.builder.
		Select("part_id", "expiration_date", "quantity", "is_overdue", "updated_at").
		From(stockTable).
		Where(lotWhere(lot)).
		ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("stock lot", lot.PartID.String()).
				WithDetail("expirationDate", lot.ExpirationString())
		}
		return e, fmt.Errorf("get stock lot: %w", err)
	}
	return e, nil
}

// incrementSQL is an upsert so the first supply of a lot creates its row.
const incrementSQL = `
	INSERT INTO reg_part_stock (part_id, expiration_date, quantity, is_overdue, updated_at)
	VALUES ($1, $2, $3, COALESCE($2 < CURRENT_DATE, false), now())
	ON CONFLICT (part_id, expiration_date) DO UPDATE SET
		quantity = reg_part_stock.quantity + EXCLUDED.quantity,
		updated_at = now()
`

// Increment implements stock.Repository.
func (r *StockRepo) Increment(ctx context.Context, lot entity.Lot, qty types.Quantity) error {
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, incrementSQL, lot.PartID, lot.ExpirationDate, qty); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewNotFound("part", lot.PartID.String()).WithCause(err)
		}
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

// decrementQuery guards the subtraction in the WHERE clause, so two shipments
// racing for the last units cannot both succeed.
func (r *StockRepo) decrementQuery(lot entity.Lot, qty types.Quantity) (string, []any, error) {
	return r.builder.
		Update(stockTable).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(lotWhere(lot)).
		Where(squirrel.GtOrEq{"quantity": qty}).
		ToSql()
}

// Decrement implements stock.Repository.
func (r *StockRepo) Decrement(ctx context.Context, lot entity.Lot, qty types.Quantity) (bool, error) {
	sql, args, err := r.decrementQuery(lot, qty)
	if err != nil {
		return false, fmt.Errorf("build decrement: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecomputeOverdue implements stock.Repository.
func (r *StockRepo) RecomputeOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE reg_part_stock
		SET is_overdue = (expiration_date IS NOT NULL AND expiration_date < $1)
		WHERE is_overdue IS DISTINCT FROM (expiration_date IS NOT NULL AND expiration_date < $1)
	`, types.DateOf(asOf))
	if err != nil {
		return 0, fmt.Errorf("recompute overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *StockRepo) viewSelect(f stock.ListFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(append(entryCols, "p.article", "p.name", "p.unit")...).
		From(stockTable + " s").
		Join(partsJoin)
	if f.PartID != nil {
		q = q.Where(squirrel.Eq{"s.part_id": *f.PartID})
	}
	if f.OnlyPositive {
		q = q.Where(squirrel.Gt{"s.quantity": 0})
	}
	if f.OnlyOverdue {
		q = q.Where(squirrel.Eq{"s.is_overdue": true})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"p.article": pattern},
			squirrel.ILike{"p.name": pattern},
		})
	}
	return q
}

const partsJoin = "cat_parts p ON p.id = s.part_id"

// List implements stock.Repository.
func (r *StockRepo) List(ctx context.Context, f stock.ListFilter) (domain.ListResult[stock.EntryView], error) {
	f.Normalize()
	result := domain.ListResult[stock.EntryView]{
		Items:  []stock.EntryView{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	q := r.viewSelect(f)
	querier := r.txManager.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count stock: %w", err)
	}

	sql, args, err := q.
		OrderBy("p.name", "s.part_id", "s.expiration_date NULLS FIRST").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list stock: %w", err)
	}
	return result, nil
}

// ListByPart implements stock.Repository.
func (r *StockRepo) ListByPart(ctx context.Context, partID id.ID) ([]stock.Entry, error) {
	sql, args, err := r.builder.
		Select(entryCols...).
		From(stockTable + " s").
		Where(squirrel.Eq{"s.part_id": partID}).
		OrderBy("s.expiration_date NULLS FIRST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []stock.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list part lots: %w", err)
	}
	return out, nil
}

// All implements stock.Repository.
func (r *StockRepo) All(ctx context.Context) ([]stock.Entry, error) {
	var out []stock.Entry
	sql := "SELECT part_id, expiration_date, quantity, is_overdue, updated_at FROM " + stockTable
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql); err != nil {
		return nil, fmt.Errorf("select stock: %w", err)
	}
	return out, nil
}

// ExpectedBalances implements stock.Repository.
func (r *StockRepo) ExpectedBalances(ctx context.Context) ([]entity.LotQuantity, error) {
	var out []entity.LotQuantity
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, `
		SELECT part_id, expiration_date, SUM(quantity)::bigint AS quantity
		FROM (
			SELECT part_id, expiration_date, quantity FROM doc_supplies
			UNION ALL
			SELECT part_id, expiration_date, -quantity FROM doc_shipment_lines
		) moves
		GROUP BY part_id, expiration_date
	`)
	if err != nil {
		return nil, fmt.Errorf("expected balances: %w", err)
	}
	return out, nil
}
