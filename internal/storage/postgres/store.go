package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories over one pool so a single value satisfies
// every service's repository interface.
type Store struct {
	*CatalogRepository
	*ReservationRepository
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		CatalogRepository:     NewCatalogRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		pool:                  pool,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}
