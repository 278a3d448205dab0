package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/config"
	"github.com/cimillas/asset-reservations/internal/identity"
	"github.com/cimillas/asset-reservations/internal/storage"
	transporthttp "github.com/cimillas/asset-reservations/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	logger := newLogger(os.Getenv("APP_ENV"))
	defer func() { _ = logger.Sync() }()

	config.LoadEnvFile(logger)

	cfg, err := config.Load(os.Args[1:], logger)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	store, release, err := storage.Open(context.Background(), cfg.Store, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer release()

	verifier, err := identity.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("token verifier", zap.Error(err))
	}

	clk := clock.NewSystem()
	opts := []app.Option{app.WithLogger(logger)}
	availability := app.NewAvailabilityService(store, clk, opts...)

	handler := transporthttp.NewRouter(transporthttp.Dependencies{
		Catalog:      app.NewCatalogService(store, availability, clk, opts...),
		Availability: availability,
		Reservations: app.NewReservationService(store, clk, opts...),
		Lifecycle:    app.NewLifecycleService(store, clk, opts...),
		Queries:      app.NewQueryService(store),
		Store:        store,
		Auth:         verifier,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store), zap.String("env", cfg.Env))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "prod" || env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
