package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyRows bulk-inserts rows with the COPY protocol inside the transaction in ctx.
// Outside a transaction it falls back to one INSERT per row.
func (m *TxManager) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	if tx := m.GetTx(ctx); tx != nil {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy into %s: %w", table, err)
		}
		return nil
	}

	batch := &pgx.Batch{}
	sql := insertSQL(table, columns)
	for _, row := range rows {
		batch.Queue(sql, row...)
	}
	results := m.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

func insertSQL(table string, columns []string) string {
	sql := "INSERT INTO " + pgx.Identifier{table}.Sanitize() + " ("
	values := ""
	for i, c := range columns {
		if i > 0 {
			sql += ", "
			values += ", "
		}
		sql += pgx.Identifier{c}.Sanitize()
		values += fmt.Sprintf("$%d", i+1)
	}
	return sql + ") VALUES (" + values + ")"
}
