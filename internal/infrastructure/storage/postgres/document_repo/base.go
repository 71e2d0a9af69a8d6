// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/infrastructure/storage/postgres"
)

// Record is the constraint on documents stored by BaseDocumentRepo.
type Record interface {
	NextVersion()
}

// immutableCols are never rewritten by Update.
var immutableCols = []string{"id", "version", "created_at", "created_by"}

// BaseDocumentRepo provides common CRUD operations for document entities.
type BaseDocumentRepo[T Record] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	// dateCol orders listings newest first.
	dateCol string
	// searchCols are matched case-insensitively by ListFilter.Search.
	searchCols []string
	// managedCols are owned by dedicated setters and skipped by Update.
	managedCols []string
	newFn       func() T
}

// DocumentTable describes the header table of a document.
type DocumentTable struct {
	Name        string
	Entity      string
	DateCol     string
	SearchCols  []string
	ManagedCols []string
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T Record](txManager *postgres.TxManager, table DocumentTable, selectCols []string, newFn func() T) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:   txManager,
		tableName:   table.Name,
		entityName:  table.Entity,
		selectCols:  selectCols,
		dateCol:     table.DateCol,
		searchCols:  table.SearchCols,
		managedCols: table.ManagedCols,
		newFn:       newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) columns(doc T, skip []string) map[string]any {
	data := postgres.StructToMap(doc)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if slices.Contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(r.columns(doc, nil)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewValidation(r.entityName + " references a missing record").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// updateQuery builds the optimistic-lock UPDATE of the header.
func (r *BaseDocumentRepo[T]) updateQuery(doc T) (string, []any, error) {
	data := postgres.StructToMap(doc)
	version, ok := data["version"].(int)
	if !ok {
		return "", nil, fmt.Errorf("%s has no int version column", r.tableName)
	}
	return r.Builder().
		Update(r.tableName).
		SetMap(r.columns(doc, append(slices.Clone(immutableCols), r.managedCols...))).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": data["id"], "version": version}).
		ToSql()
}

// Update stores the header and advances the version.
// A stale version yields CONCURRENT_MODIFICATION.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	sql, args, err := r.updateQuery(doc)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, postgres.StructToMap(doc)["id"])
	}
	doc.NextVersion()
	return nil
}

// Delete removes the document; child rows cascade.
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, docID id.ID) error {
	result, err := r.querier(ctx).Exec(ctx, "DELETE FROM "+r.tableName+" WHERE id = $1", docID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, docID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves a document header with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (T, error) {
	doc := r.newFn()
	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return doc, nil
}

// listQuery applies the filters shared by all document listings.
func (r *BaseDocumentRepo[T]) listQuery(f domain.ListFilter, from, to *time.Time) squirrel.SelectBuilder {
	q := r.baseSelect()
	if search := strings.TrimSpace(f.Search); search != "" && len(r.searchCols) > 0 {
		pattern := "%" + search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if from != nil {
		q = q.Where(squirrel.GtOrEq{r.dateCol: *from})
	}
	if to != nil {
		q = q.Where(squirrel.LtOrEq{r.dateCol: *to})
	}
	return q
}

// page counts and fetches one page of q, newest documents first.
func (r *BaseDocumentRepo[T]) page(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter) (domain.ListResult[T], error) {
	f.Normalize()
	result := domain.ListResult[T]{
		Items:  []T{},
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	sql, args, err := q.
		OrderBy(r.dateCol+" DESC", "created_at DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}
