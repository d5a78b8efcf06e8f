// Package app assembles the engine from configuration. The server, the
// maintenance worker and stockctl share it so every binary runs the same
// services over the same storage.
package app

import (
	"context"
	"fmt"

	"stockcore/internal/config"
	"stockcore/internal/core/idempotency"
	"stockcore/internal/core/security"
	"stockcore/internal/core/tx"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/auth"
	"stockcore/internal/domain/cashledger"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/inventory"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/internal/infrastructure/http/v1/handlers"
	"stockcore/internal/infrastructure/lock"
	"stockcore/internal/infrastructure/metrics"
	"stockcore/internal/infrastructure/storage/memory"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/internal/infrastructure/storage/postgres/catalog_repo"
	"stockcore/internal/infrastructure/storage/postgres/document_repo"
	"stockcore/internal/infrastructure/storage/postgres/register_repo"
	"stockcore/pkg/logger"
)

const devJWTSecret = "stockcore-development-secret"

// cashStore records and lists cash drawer movements.
type cashStore interface {
	cashledger.Recorder
	cashledger.Lister
}

// auditStore writes and reads audit records.
type auditStore interface {
	audit.Sink
	audit.Reader
}

// App holds the wired services.
type App struct {
	Config config.Config
	Log    *logger.Logger

	Inventory *inventory.Service
	Products  *product.Service
	Moves     *stockmove.Service
	Costing   *costing.Engine
	JWT       *auth.JWTService

	Audit       auditStore
	Cash        cashStore
	Idempotency idempotency.Store
	Metrics     *metrics.Metrics

	// Pool is nil on the in-memory store.
	Pool *postgres.Pool
	// PgIdempotency is set only on postgres; it owns key expiry.
	PgIdempotency *postgres.IdempotencyStore
	// Checks are the external dependencies readiness probes ping.
	Checks []handlers.Check

	closers []func()
}

// Build connects storage and wires every service.
func Build(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
	}

	var deps inventory.Deps
	var productRepo product.Repository
	var txm tx.ReadOnlyManager

	if cfg.UsesPostgres() {
		pool, err := postgres.NewPool(ctx, cfg.Pool())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.Pool = pool
		a.closers = append(a.closers, pool.Close)
		a.Checks = append(a.Checks, handlers.Check{Name: "postgres", Ping: pool.Ping})

		if cfg.Postgres.MigrateOnStart {
			m, err := postgres.NewMigrator(pool)
			if err != nil {
				a.Close()
				return nil, err
			}
			if err := m.Up(ctx); err != nil {
				a.Close()
				return nil, err
			}
			log.Info("migrations applied")
		}

		tm := postgres.NewTxManager(pool)
		sink, err := postgres.NewAuditSink(tm)
		if err != nil {
			a.Close()
			return nil, err
		}
		products := catalog_repo.NewProductRepo(tm)
		productRepo = products
		txm = tm
		deps = inventory.Deps{
			Products:    products,
			Moves:       register_repo.NewMoveRepo(tm),
			Sales:       document_repo.NewSaleRepo(tm),
			Purchases:   document_repo.NewPurchaseRepo(tm),
			Adjustments: document_repo.NewAdjustmentRepo(tm),
			TxManager:   tm,
			Numbers:     postgres.NewNumerator(tm),
		}
		a.Audit = sink
		a.Cash = postgres.NewCashRecorder(tm)
		a.PgIdempotency = postgres.NewIdempotencyStore(tm, cfg.Idempotency.TTL)
		a.Idempotency = a.PgIdempotency
		log.Infow("storage: postgres", "max_conns", cfg.Postgres.MaxConns)
	} else {
		store := memory.NewStore()
		productRepo = store.Products()
		txm = store
		deps = inventory.Deps{
			Products:    store.Products(),
			Moves:       store.Moves(),
			Sales:       store.Sales(),
			Purchases:   store.Purchases(),
			Adjustments: store.Adjustments(),
			TxManager:   store,
			Numbers:     store.Numerator(),
		}
		a.Audit = store.AuditSink()
		a.Cash = store.CashRecorder()
		a.Idempotency = memory.NewIdempotencyStore()
		log.Warn("storage: in-memory, data is lost on exit")
	}

	if cfg.Redis.Addr != "" {
		locker, err := lock.NewRedisLocker(ctx, cfg.Lock())
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Locker = locker
		a.Checks = append(a.Checks, handlers.Check{Name: "redis", Ping: locker.Ping})
		a.closers = append(a.closers, func() { _ = locker.Close() })
		log.Infow("product locks: redis", "addr", cfg.Redis.Addr)
	}

	deps.Audit = a.Audit
	if a.Metrics != nil {
		deps.Observer = a.Metrics
		if a.Pool != nil {
			pool := a.Pool
			a.Metrics.WatchPool(func() metrics.PoolGauges {
				s := pool.Stats()
				return metrics.PoolGauges{Total: s.TotalConns, Acquired: s.AcquiredConns, Idle: s.IdleConns, Max: s.MaxConns}
			})
		}
	}

	a.Inventory = inventory.NewService(deps)
	a.Inventory.SaleHooks().OnAfterCreate(cashledger.SaleHook(a.Cash))
	a.Inventory.PurchaseHooks().OnAfterCreate(cashledger.PurchaseHook(a.Cash))

	a.Products = product.NewService(productRepo, txm)
	a.Moves = stockmove.NewService(deps.Moves)
	a.Costing = costing.NewEngine(productRepo, txm)

	authz, err := security.NewAuthorizer(cfg.Auth.PrivilegedPolicy)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("privileged policy: %w", err)
	}
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Validate only lets this through in development.
		secret = devJWTSecret
		log.Warn("auth.jwt_secret not set, using the development secret")
	}
	jwtCfg := auth.DefaultJWTConfig(secret)
	if cfg.Auth.Issuer != "" {
		jwtCfg.Issuer = cfg.Auth.Issuer
	}
	if cfg.Auth.TokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.Auth.TokenTTL
	}
	a.JWT = auth.NewJWTService(jwtCfg, authz)

	return a, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
