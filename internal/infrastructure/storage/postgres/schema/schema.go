// Package schema holds the PostgreSQL DDL of the service.
package schema

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ebase/pkg/logger"
)

//go:embed schema.sql
var ddl string

// DDL returns the schema script.
func DDL() string { return ddl }

// Migrate applies the schema. Every statement is idempotent, so running it on
// an up-to-date database is a no-op.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema is up to date")
	return nil
}
