// Package main is the entry point for the ebase API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ebase/internal/app"
	"ebase/internal/config"
	v1 "ebase/internal/infrastructure/http/v1"
	"ebase/internal/infrastructure/http/v1/handlers"
	"ebase/internal/infrastructure/http/v1/middleware"
	"ebase/internal/infrastructure/storage/memory"
	"ebase/internal/infrastructure/storage/postgres"
	"ebase/internal/infrastructure/storage/postgres/schema"
	"ebase/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting ebase server", "version", version, "storage", cfg.Storage)

	routerCfg := v1.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		ReleaseMode:    !cfg.Development(),
		Version:        version,
	}
	opts := app.Options{
		TemplatesDir: cfg.TemplatesDir,
		DocsRoot:     cfg.DocsRoot,
	}

	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := openDatabase(ctx, cfg)
		if err != nil {
			log.Fatalw("failed to open database", "error", err)
		}
		defer pool.Close()

		backend, txManager, err := app.PostgresBackend(pool)
		if err != nil {
			log.Fatalw("failed to build postgres backend", "error", err)
		}
		routerCfg.Services = app.NewServices(backend, opts)
		routerCfg.DB = pool

		if cfg.IdempotencyEnabled() {
			store := postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL)
			routerCfg.Idempotency = store
			go runMaintenance(ctx, cfg.CleanupPeriod, pool, store)
		}
	default:
		backend, repos := app.MemoryBackend(memory.NewStore())
		routerCfg.Services = app.NewServices(backend, opts)
		log.Warn("using in-memory storage, data is lost on restart")

		if cfg.EquipmentFixture == "" {
			log.Warn("EQUIPMENT_FIXTURE is not set, repairs and acts will not find any equipment")
		} else if err := loadEquipment(ctx, repos.Directory, cfg.EquipmentFixture); err != nil {
			log.Fatalw("failed to load equipment fixture", "error", err, "path", cfg.EquipmentFixture)
		}
	}

	router, err := v1.NewRouter(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.Pool, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := schema.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return pool, nil
}

func loadEquipment(ctx context.Context, dir *memory.Directory, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := dir.LoadCards(ctx, f)
	if err != nil {
		return err
	}
	logger.Info(ctx, "equipment cards loaded", "count", n, "path", path)
	return nil
}

// runMaintenance purges expired idempotency keys and logs pool stats.
func runMaintenance(ctx context.Context, period time.Duration, pool *postgres.Pool, store *postgres.IdempotencyStore) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
			} else if removed > 0 {
				logger.Info(ctx, "idempotency keys purged", "count", removed)
			}
			pool.LogStats(ctx)
		}
	}
}

var (
	_ handlers.Pinger             = (*postgres.Pool)(nil)
	_ middleware.IdempotencyStore = (*postgres.IdempotencyStore)(nil)
)
