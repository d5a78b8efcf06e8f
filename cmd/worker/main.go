// Package main is the entry point for the stockcore maintenance worker.
// It expires idempotency keys and reports pool usage on a postgres deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockcore/internal/config"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to a YAML config file")
	cleanupEvery := flag.Duration("cleanup-interval", time.Hour, "idempotency key cleanup interval")
	statsEvery := flag.Duration("stats-interval", 5*time.Minute, "pool stats interval")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if !cfg.UsesPostgres() {
		log.Fatal("worker requires postgres.dsn")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting stockcore worker")

	pool, err := postgres.NewPool(ctx, cfg.Pool())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	worker := NewWorker(pool, cfg.Idempotency.TTL, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, *cleanupEvery, *statsEvery)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs periodic housekeeping against the database.
type Worker struct {
	pool *postgres.Pool
	keys *postgres.IdempotencyStore
	log  *logger.Logger
}

func NewWorker(pool *postgres.Pool, keyTTL time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		pool: pool,
		keys: postgres.NewIdempotencyStore(postgres.NewTxManager(pool), keyTTL),
		log:  log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, cleanupEvery, statsEvery time.Duration) {
	cleanupTicker := time.NewTicker(cleanupEvery)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(statsEvery)
	defer statsTicker.Stop()

	w.cleanupIdempotency(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		case <-statsTicker.C:
			w.pool.LogStats(logger.WithLogger(ctx, w.log))
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("idempotency cleanup failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
