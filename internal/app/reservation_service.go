package app

import (
	"context"
	"errors"
	"strings"

	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"go.uber.org/zap"
)

// maxReferenceAttempts bounds retries when a generated reference code collides.
const maxReferenceAttempts = 3

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetAssetForUpdate locks the asset row until the transaction ends,
	// serializing admissions for the same asset.
	GetAssetForUpdate(ctx context.Context, assetID string) (domain.Asset, error)
	ListHolding(ctx context.Context, assetID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
}

// ReservationService admits new reservations against finite inventory.
type ReservationService struct {
	repo   ReservationRepository
	clock  clock.Clock
	logger *zap.Logger
}

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...Option) *ReservationService {
	cfg := newServiceConfig(opts)
	return &ReservationService{
		repo:   repo,
		clock:  clk,
		logger: cfg.logger,
	}
}

type CreateReservationInput struct {
	AssetID  string
	Window   domain.Window
	Quantity int
	Purpose  string
	Notes    string
}

func (in CreateReservationInput) validate() (domain.Window, error) {
	if strings.TrimSpace(in.AssetID) == "" {
		return domain.Window{}, domain.NewValidationError("asset_id", "required")
	}
	w, err := domain.NewWindow(in.Window.Start, in.Window.End)
	if err != nil {
		return domain.Window{}, err
	}
	if in.Quantity < 1 {
		return domain.Window{}, domain.NewValidationError("quantity", "must be at least 1")
	}
	if strings.TrimSpace(in.Purpose) == "" {
		return domain.Window{}, domain.NewValidationError("purpose", "required")
	}
	return w, nil
}

// RequestReservation checks remaining capacity for the requested window and
// commits a pending reservation plus its "Created" audit entry. The check and
// the insert run in one transaction holding the asset row lock.
func (s *ReservationService) RequestReservation(ctx context.Context, p domain.Principal, in CreateReservationInput) (domain.Reservation, error) {
	if p.ID == "" {
		return domain.Reservation{}, domain.ErrForbidden
	}
	window, err := in.validate()
	if err != nil {
		return domain.Reservation{}, err
	}

	var result domain.Reservation
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		result, err = s.admit(ctx, p, in, window)
		if !errors.Is(err, domain.ErrDuplicateReference) {
			break
		}
		s.logger.Debug("reservation reference collided, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		var capErr *domain.InsufficientCapacityError
		if errors.As(err, &capErr) {
			s.logger.Info("reservation rejected",
				zap.String("asset_id", in.AssetID),
				zap.Int("requested", in.Quantity),
				zap.Int("remaining", capErr.Remaining))
		}
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation admitted",
		zap.String("reservation_id", result.ID),
		zap.String("reference", result.ReferenceCode),
		zap.String("asset_id", result.AssetID),
		zap.Int("quantity", result.Quantity))
	return result, nil
}

func (s *ReservationService) admit(ctx context.Context, p domain.Principal, in CreateReservationInput, window domain.Window) (domain.Reservation, error) {
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		asset, err := s.repo.GetAssetForUpdate(txCtx, in.AssetID)
		if err != nil {
			return err
		}
		if !asset.Active {
			return domain.ErrAssetNotFound
		}

		rows, err := s.repo.ListHolding(txCtx, asset.ID, domain.WindowHoldingStatuses)
		if err != nil {
			return err
		}
		held, skipped := HeldDuring(rows, window)
		if skipped > 0 {
			s.logger.Warn("skipped reservations with malformed windows",
				zap.String("asset_id", asset.ID),
				zap.Int("count", skipped))
		}

		remaining := Remaining(asset.TotalQuantity, held)
		if in.Quantity > remaining {
			return &domain.InsufficientCapacityError{Remaining: remaining}
		}

		now := s.clock.Now()
		reservation := domain.Reservation{
			ID:            newUUID(),
			ReferenceCode: newReservationReference(),
			AssetID:       asset.ID,
			RequesterID:   p.ID,
			Window:        window,
			Quantity:      in.Quantity,
			Purpose:       strings.TrimSpace(in.Purpose),
			Notes:         strings.TrimSpace(in.Notes),
			Status:        domain.StatusPending,
			PaymentStatus: domain.PaymentUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
			return err
		}

		if err := s.repo.AppendAudit(txCtx, domain.AuditEntry{
			ID:            newUUID(),
			ReservationID: reservation.ID,
			Action:        domain.ActionCreated,
			Details:       domain.AuditDetails{To: domain.StatusPending},
			PerformedBy:   p.Actor(),
			Timestamp:     now,
		}); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}
