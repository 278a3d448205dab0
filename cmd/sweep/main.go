package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/config"
	"github.com/cimillas/asset-reservations/internal/storage"
	"github.com/cimillas/asset-reservations/internal/sweep"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	config.LoadEnvFile(logger)

	dbURL := os.Getenv("DATABASE_URL")
	store := os.Getenv("STORE")
	if store == "" {
		store = storage.Postgres
	}

	fs := pflag.NewFlagSet("sweep", pflag.ExitOnError)
	fs.StringVar(&store, "store", store, "storage backend: postgres or memory")
	fs.StringVar(&dbURL, "database-url", dbURL, "Postgres connection string")
	interval := fs.Duration("interval", 0, "repeat every interval; 0 runs a single pass")
	dryRun := fs.Bool("dry-run", false, "log candidates without changing them")
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, release, err := storage.Open(ctx, store, dbURL, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer release()

	lifecycle := app.NewLifecycleService(backend, clock.NewSystem(), app.WithLogger(logger))
	if err := sweep.New(lifecycle, logger, *dryRun).Run(ctx, *interval); err != nil {
		logger.Error("sweep failed", zap.Error(err))
		release()
		os.Exit(1)
	}
}
