// Package memory is a transactional in-process store backed by go-memdb.
// Write transactions are exclusive, so every WithTx body runs serialized
// against all other writers. It backs the service tests and STORE=memory.
package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cimillas/asset-reservations/internal/domain"
	memdb "github.com/hashicorp/go-memdb"
)

const (
	tableAssets       = "assets"
	tableReservations = "reservations"
	tableAudits       = "audits"
	tablePayments     = "payments"
	tableFeedbacks    = "feedbacks"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableAssets: {
				Name: tableAssets,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				},
			},
			tableReservations: {
				Name: tableReservations,
				Indexes: map[string]*memdb.IndexSchema{
					"id":        {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"asset":     {Name: "asset", Indexer: &memdb.StringFieldIndex{Field: "AssetID"}},
					"requester": {Name: "requester", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "RequesterID"}},
					"reference": {Name: "reference", AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "ReferenceCode"}},
				},
			},
			tableAudits: {
				Name: tableAudits,
				Indexes: map[string]*memdb.IndexSchema{
					"id":          {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"reservation": {Name: "reservation", Indexer: &memdb.StringFieldIndex{Field: "ReservationID"}},
				},
			},
			tablePayments: {
				Name: tablePayments,
				Indexes: map[string]*memdb.IndexSchema{
					"id":          {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"reservation": {Name: "reservation", Indexer: &memdb.StringFieldIndex{Field: "ReservationID"}},
					"reference":   {Name: "reference", Indexer: &memdb.StringFieldIndex{Field: "Reference"}},
				},
			},
			tableFeedbacks: {
				Name: tableFeedbacks,
				Indexes: map[string]*memdb.IndexSchema{
					"id":          {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"reservation": {Name: "reservation", Indexer: &memdb.StringFieldIndex{Field: "ReservationID"}},
				},
			},
		},
	}
}

// auditRow carries an insertion sequence so entries sharing a timestamp keep
// their write order.
type auditRow struct {
	domain.AuditEntry
	Seq uint64
}

type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

type txKey struct{}

// WithTx runs fn inside one write transaction. Nested calls reuse the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	txCtx := context.WithValue(ctx, txKey{}, txn)
	if err := fn(txCtx); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func txFromContext(ctx context.Context) *memdb.Txn {
	txn, _ := ctx.Value(txKey{}).(*memdb.Txn)
	return txn
}

// read returns the surrounding transaction or a fresh read snapshot.
func (s *Store) read(ctx context.Context) (*memdb.Txn, func()) {
	if txn := txFromContext(ctx); txn != nil {
		return txn, func() {}
	}
	txn := s.db.Txn(false)
	return txn, txn.Abort
}

// write runs fn in the surrounding transaction or in its own.
func (s *Store) write(ctx context.Context, fn func(txn *memdb.Txn) error) error {
	return s.WithTx(ctx, func(txCtx context.Context) error {
		return fn(txFromContext(txCtx))
	})
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
