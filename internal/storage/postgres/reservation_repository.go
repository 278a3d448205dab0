package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReservationRepository persists reservations and their audit, payment and
// feedback rows. Methods join the transaction carried by ctx, if any.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetAssetForUpdate takes the row lock that serializes admissions per asset.
func (r *ReservationRepository) GetAssetForUpdate(ctx context.Context, assetID string) (domain.Asset, error) {
	a, err := scanAsset(queryRow(ctx, r.pool, `SELECT `+assetColumns+` FROM assets WHERE id = $1 FOR UPDATE`, assetID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, domain.ErrAssetNotFound
		}
		return domain.Asset{}, storageErr("get asset for update", err)
	}
	return a, nil
}

const reservationColumns = `
id, reference_code, asset_id, requester_id, window_start, window_end, quantity,
purpose, notes, status, payment_status, total_amount::text, created_at, updated_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res         domain.Reservation
		start, end  *time.Time
		totalAmount *string
	)
	err := row.Scan(
		&res.ID,
		&res.ReferenceCode,
		&res.AssetID,
		&res.RequesterID,
		&start,
		&end,
		&res.Quantity,
		&res.Purpose,
		&res.Notes,
		&res.Status,
		&res.PaymentStatus,
		&totalAmount,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	if start != nil {
		res.Window.Start = start.UTC()
	}
	if end != nil {
		res.Window.End = end.UTC()
	}
	if totalAmount != nil {
		amount, err := decimal.NewFromString(*totalAmount)
		if err != nil {
			return domain.Reservation{}, fmt.Errorf("parse total_amount: %w", err)
		}
		res.TotalAmount = &amount
	}
	return res, nil
}

// nullableTime stores the zero time as NULL so malformed windows survive a round trip.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func amountParam(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (
	id, reference_code, asset_id, requester_id, window_start, window_end, quantity,
	purpose, notes, status, payment_status, total_amount, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::text::numeric, $13, $14)`

	_, err := exec(ctx, r.pool, stmt,
		res.ID,
		res.ReferenceCode,
		res.AssetID,
		res.RequesterID,
		nullableTime(res.Window.Start),
		nullableTime(res.Window.End),
		res.Quantity,
		res.Purpose,
		res.Notes,
		res.Status,
		res.PaymentStatus,
		amountParam(res.TotalAmount),
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return domain.ErrAssetNotFound
		}
		return storageErr("create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) getReservation(ctx context.Context, sql, reservationID string) (domain.Reservation, error) {
	res, err := scanReservation(queryRow(ctx, r.pool, sql, reservationID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, storageErr("get reservation", err)
	}
	return res, nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return r.getReservation(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, reservationID)
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return r.getReservation(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, reservationID)
}

// UpdateReservation writes the mutable lifecycle fields.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET status = $2, payment_status = $3, total_amount = $4::text::numeric, updated_at = $5
WHERE id = $1`
	tag, err := exec(ctx, r.pool, stmt,
		res.ID,
		res.Status,
		res.PaymentStatus,
		amountParam(res.TotalAmount),
		res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrReservationNotFound
		}
		return storageErr("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) ListHolding(ctx context.Context, assetID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	rows, err := query(ctx, r.pool, `
SELECT `+reservationColumns+`
FROM reservations
WHERE asset_id = $1 AND status = ANY($2)`, assetID, names)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, storageErr("list holding reservations", err)
	}
	return collectReservations(rows)
}

func (r *ReservationRepository) ListReservations(ctx context.Context, requesterID string) ([]domain.Reservation, error) {
	rows, err := query(ctx, r.pool, `
SELECT `+reservationColumns+`
FROM reservations
WHERE $1 = '' OR requester_id = $1
ORDER BY created_at DESC, id ASC`, requesterID)
	if err != nil {
		return nil, storageErr("list reservations", err)
	}
	return collectReservations(rows)
}

// ListOverdue returns in-possession reservations whose window ended before now.
func (r *ReservationRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	rows, err := query(ctx, r.pool, `
SELECT `+reservationColumns+`
FROM reservations
WHERE status = $1
  AND window_start IS NOT NULL
  AND window_end IS NOT NULL
  AND window_start <= window_end
  AND window_end < $2
ORDER BY window_end ASC`, domain.StatusInPossession, now)
	if err != nil {
		return nil, storageErr("list overdue reservations", err)
	}
	return collectReservations(rows)
}

func (r *ReservationRepository) CountByStatus(ctx context.Context, requesterID string) (map[domain.ReservationStatus]int, error) {
	rows, err := query(ctx, r.pool, `
SELECT status, COUNT(*)
FROM reservations
WHERE $1 = '' OR requester_id = $1
GROUP BY status`, requesterID)
	if err != nil {
		return nil, storageErr("count reservations", err)
	}
	defer rows.Close()

	counts := make(map[domain.ReservationStatus]int)
	for rows.Next() {
		var (
			status domain.ReservationStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storageErr("scan reservation count", err)
		}
		counts[status] = n
	}
	if rows.Err() != nil {
		return nil, storageErr("iterate reservation counts", rows.Err())
	}
	return counts, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, storageErr("scan reservation", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, storageErr("iterate reservations", rows.Err())
	}
	return out, nil
}
