package memory

import (
	"context"
	"sort"

	"github.com/cimillas/asset-reservations/internal/domain"
	memdb "github.com/hashicorp/go-memdb"
)

func (s *Store) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		row := &auditRow{AuditEntry: entry, Seq: s.seq.Add(1)}
		if entry.PerformedBy != nil {
			by := *entry.PerformedBy
			row.PerformedBy = &by
		}
		if err := txn.Insert(tableAudits, row); err != nil {
			return storageErr("append audit", err)
		}
		return nil
	})
}

// ListAudits returns entries oldest first.
func (s *Store) ListAudits(ctx context.Context, reservationID string) ([]domain.AuditEntry, error) {
	txn, done := s.read(ctx)
	defer done()

	it, err := txn.Get(tableAudits, "reservation", reservationID)
	if err != nil {
		return nil, storageErr("list audits", err)
	}
	var rows []*auditRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*auditRow))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Seq < rows[j].Seq
	})

	out := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.AuditEntry)
	}
	return out, nil
}

func (s *Store) CreatePayment(ctx context.Context, p domain.PaymentRecord) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		dup, err := txn.First(tablePayments, "reference", p.Reference)
		if err != nil {
			return storageErr("create payment", err)
		}
		if dup != nil {
			return domain.ErrDuplicateReference
		}
		row := p
		if err := txn.Insert(tablePayments, &row); err != nil {
			return storageErr("create payment", err)
		}
		return nil
	})
}

func (s *Store) ListPayments(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error) {
	txn, done := s.read(ctx)
	defer done()

	it, err := txn.Get(tablePayments, "reservation", reservationID)
	if err != nil {
		return nil, storageErr("list payments", err)
	}
	var out []domain.PaymentRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*domain.PaymentRecord))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) FindFeedback(ctx context.Context, reservationID string) (*domain.Feedback, error) {
	txn, done := s.read(ctx)
	defer done()

	raw, err := txn.First(tableFeedbacks, "reservation", reservationID)
	if err != nil {
		return nil, storageErr("find feedback", err)
	}
	if raw == nil {
		return nil, nil
	}
	fb := *raw.(*domain.Feedback)
	return &fb, nil
}

func (s *Store) CreateFeedback(ctx context.Context, f domain.Feedback) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		dup, err := txn.First(tableFeedbacks, "reservation", f.ReservationID)
		if err != nil {
			return storageErr("create feedback", err)
		}
		if dup != nil {
			return domain.ErrAlreadySubmitted
		}
		row := f
		if err := txn.Insert(tableFeedbacks, &row); err != nil {
			return storageErr("create feedback", err)
		}
		return nil
	})
}
