// Package storage selects a reservation store backend at startup.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/storage/memory"
	"github.com/cimillas/asset-reservations/internal/storage/postgres"
	"github.com/cimillas/asset-reservations/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	Postgres = "postgres"
	Memory   = "memory"

	startupTimeout = 10 * time.Second
)

// Backend is everything the services need from a store.
type Backend interface {
	app.ReservationRepository
	app.LifecycleRepository
	app.AvailabilityRepository
	app.CatalogRepository
	app.QueryRepository
	Ping(ctx context.Context) error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
)

// Open returns the named backend and a release func. For Postgres it waits
// for a ping and applies pending migrations before returning.
func Open(ctx context.Context, kind, databaseURL string, logger *zap.Logger) (Backend, func(), error) {
	switch kind {
	case Memory:
		store, err := memory.New()
		if err != nil {
			return nil, nil, fmt.Errorf("open memory store: %w", err)
		}
		logger.Warn("using in-memory store, data is lost on restart")
		return store, func() {}, nil
	case Postgres:
		return openPostgres(ctx, databaseURL, logger)
	default:
		return nil, nil, fmt.Errorf("unknown store %q", kind)
	}
}

func openPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (Backend, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.ApplyWithLogger(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database ready", zap.Int("migrations_applied", len(applied)))
	return postgres.NewStore(pool), pool.Close, nil
}
