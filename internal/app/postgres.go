package app

import (
	"context"
	"fmt"

	"ebase/internal/infrastructure/numerator"
	"ebase/internal/infrastructure/storage/postgres"
	"ebase/internal/infrastructure/storage/postgres/catalog_repo"
	"ebase/internal/infrastructure/storage/postgres/document_repo"
	"ebase/internal/infrastructure/storage/postgres/register_repo"
)

// PostgresBackend builds a backend over a connection pool. Every repository
// resolves the transaction stored in ctx by the returned TxManager.
func PostgresBackend(pool *postgres.Pool) (Backend, *postgres.TxManager, error) {
	txManager := postgres.NewTxManager(pool)

	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		return Backend{}, nil, fmt.Errorf("create audit log: %w", err)
	}

	return Backend{
		TxManager:    txManager,
		Parts:        catalog_repo.NewPartRepo(txManager),
		Stock:        register_repo.NewStockRepo(txManager),
		Supplies:     document_repo.NewSupplyRepo(txManager),
		Shipments:    document_repo.NewShipmentRepo(txManager),
		Repairs:      document_repo.NewRepairRepo(txManager),
		Replacements: catalog_repo.NewReplacementRepo(txManager),
		Directory:    catalog_repo.NewEquipmentDirectory(txManager),
		Audit:        auditLog,
		Numerator: numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
			return txManager.GetQuerier(ctx)
		}),
	}, txManager, nil
}
