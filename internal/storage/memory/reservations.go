package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
	memdb "github.com/hashicorp/go-memdb"
)

func (s *Store) CreateReservation(ctx context.Context, r domain.Reservation) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		if _, err := getAsset(txn, r.AssetID); err != nil {
			return err
		}
		dup, err := txn.First(tableReservations, "reference", r.ReferenceCode)
		if err != nil {
			return storageErr("create reservation", err)
		}
		if dup != nil {
			return domain.ErrDuplicateReference
		}
		row := r
		if err := txn.Insert(tableReservations, &row); err != nil {
			return storageErr("create reservation", err)
		}
		return nil
	})
}

func (s *Store) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	txn, done := s.read(ctx)
	defer done()

	raw, err := txn.First(tableReservations, "id", reservationID)
	if err != nil {
		return domain.Reservation{}, storageErr("get reservation", err)
	}
	if raw == nil {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return *raw.(*domain.Reservation), nil
}

func (s *Store) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return s.GetReservation(ctx, reservationID)
}

func (s *Store) UpdateReservation(ctx context.Context, r domain.Reservation) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		existing, err := txn.First(tableReservations, "id", r.ID)
		if err != nil {
			return storageErr("update reservation", err)
		}
		if existing == nil {
			return domain.ErrReservationNotFound
		}
		row := r
		if err := txn.Insert(tableReservations, &row); err != nil {
			return storageErr("update reservation", err)
		}
		return nil
	})
}

func (s *Store) ListHolding(ctx context.Context, assetID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	txn, done := s.read(ctx)
	defer done()

	want := make(map[domain.ReservationStatus]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}
	return collect(txn, "asset", assetID, func(r *domain.Reservation) bool {
		_, ok := want[r.Status]
		return ok
	})
}

func (s *Store) ListReservations(ctx context.Context, requesterID string) ([]domain.Reservation, error) {
	txn, done := s.read(ctx)
	defer done()

	var (
		out []domain.Reservation
		err error
	)
	if requesterID == "" {
		out, err = collect(txn, "id", "", nil)
	} else {
		out, err = collect(txn, "requester", requesterID, nil)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CountByStatus(ctx context.Context, requesterID string) (map[domain.ReservationStatus]int, error) {
	rows, err := s.ListReservations(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.ReservationStatus]int)
	for _, r := range rows {
		counts[r.Status]++
	}
	return counts, nil
}

// ListOverdue returns in-possession reservations whose window ended before now.
func (s *Store) ListOverdue(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	txn, done := s.read(ctx)
	defer done()

	out, err := collect(txn, "id", "", func(r *domain.Reservation) bool {
		return r.Status == domain.StatusInPossession && r.Window.Valid() && r.Window.End.Before(now)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Window.End.Before(out[j].Window.End)
	})
	return out, nil
}

// collect iterates an index. An empty value with the id index walks the whole table.
func collect(txn *memdb.Txn, index, value string, keep func(*domain.Reservation) bool) ([]domain.Reservation, error) {
	var (
		it  memdb.ResultIterator
		err error
	)
	if index == "id" && value == "" {
		it, err = txn.Get(tableReservations, "id")
	} else {
		it, err = txn.Get(tableReservations, index, value)
	}
	if err != nil {
		return nil, storageErr("list reservations", err)
	}

	var out []domain.Reservation
	for obj := it.Next(); obj != nil; obj = it.Next() {
		r := obj.(*domain.Reservation)
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}
