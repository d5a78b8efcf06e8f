// Package main is the entry point for the stockcore API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockcore/internal/app"
	"stockcore/internal/config"
	v1 "stockcore/internal/infrastructure/http/v1"
	"stockcore/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// A missing .env is normal outside local development.
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

	ctx := context.Background()
	log.Infow("starting stockcore server", "env", cfg.App.Env)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to build application", "error", err)
	}
	defer a.Close()

	rc := v1.RouterConfig{
		Logger:       log,
		JWTValidator: a.JWT,
		Inventory:    a.Inventory,
		Products:     a.Products,
		Moves:        a.Moves,
		Costing:      a.Costing,
		AuditReader:  a.Audit,
		Cash:         a.Cash,
		Metrics:      a.Metrics,
		Pool:         a.Pool,
		Checks:       a.Checks,
	}
	if cfg.Idempotency.Enabled {
		rc.Idempotency = a.Idempotency
	}
	router := v1.NewRouter(rc)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "postgres", cfg.UsesPostgres())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
