package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (r *ReservationRepository) AppendAudit(ctx context.Context, entry domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	const stmt = `
INSERT INTO reservation_audits (id, reservation_id, action, details, performed_by, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6)`
	_, err = exec(ctx, r.pool, stmt,
		entry.ID,
		entry.ReservationID,
		entry.Action,
		string(details),
		entry.PerformedBy,
		entry.Timestamp,
	)
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrReservationNotFound
		}
		return storageErr("append audit", err)
	}
	return nil
}

// ListAudits returns entries oldest first; seq breaks timestamp ties.
func (r *ReservationRepository) ListAudits(ctx context.Context, reservationID string) ([]domain.AuditEntry, error) {
	rows, err := query(ctx, r.pool, `
SELECT id, reservation_id, action, details::text, performed_by, created_at
FROM reservation_audits
WHERE reservation_id = $1
ORDER BY created_at ASC, seq ASC`, reservationID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, storageErr("list audits", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e       domain.AuditEntry
			details string
		)
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.Action, &details, &e.PerformedBy, &e.Timestamp); err != nil {
			return nil, storageErr("scan audit", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decode audit details %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, storageErr("iterate audits", rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) CreatePayment(ctx context.Context, p domain.PaymentRecord) error {
	const stmt = `
INSERT INTO payments (id, reservation_id, reference, amount, currency, method, status, created_at)
VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8)`
	_, err := exec(ctx, r.pool, stmt,
		p.ID,
		p.ReservationID,
		p.Reference,
		p.Amount.String(),
		p.Currency,
		p.Method,
		p.Status,
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrReservationNotFound
		}
		return storageErr("create payment", err)
	}
	return nil
}

func (r *ReservationRepository) ListPayments(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error) {
	rows, err := query(ctx, r.pool, `
SELECT id, reservation_id, reference, amount::text, currency, method, status, created_at
FROM payments
WHERE reservation_id = $1
ORDER BY created_at ASC`, reservationID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, storageErr("list payments", err)
	}
	defer rows.Close()

	var out []domain.PaymentRecord
	for rows.Next() {
		var (
			p      domain.PaymentRecord
			amount string
		)
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.Reference, &amount, &p.Currency, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, storageErr("scan payment", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment amount %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, storageErr("iterate payments", rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) FindFeedback(ctx context.Context, reservationID string) (*domain.Feedback, error) {
	const q = `
SELECT id, reservation_id, asset_id, user_id, rating, comment, created_at
FROM feedbacks
WHERE reservation_id = $1`
	var f domain.Feedback
	err := queryRow(ctx, r.pool, q, reservationID).
		Scan(&f.ID, &f.ReservationID, &f.AssetID, &f.UserID, &f.Rating, &f.Comment, &f.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("find feedback", err)
	}
	return &f, nil
}

func (r *ReservationRepository) CreateFeedback(ctx context.Context, f domain.Feedback) error {
	const stmt = `
INSERT INTO feedbacks (id, reservation_id, asset_id, user_id, rating, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := exec(ctx, r.pool, stmt, f.ID, f.ReservationID, f.AssetID, f.UserID, f.Rating, f.Comment, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySubmitted
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrReservationNotFound
		}
		return storageErr("create feedback", err)
	}
	return nil
}
