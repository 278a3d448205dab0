package app

import (
	"context"
	"time"

	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"go.uber.org/zap"
)

// HeldAt sums the units held at instant. In-possession reservations count
// regardless of their window because the unit is physically out. Rows whose
// stored window is malformed are skipped and reported in skipped.
func HeldAt(reservations []domain.Reservation, instant time.Time) (held, skipped int) {
	for _, r := range reservations {
		if !holds(domain.InstantHoldingStatuses, r.Status) {
			continue
		}
		if !r.Window.Valid() {
			skipped++
			continue
		}
		if r.Status == domain.StatusInPossession || r.Window.Contains(instant) {
			held += r.Quantity
		}
	}
	return held, skipped
}

// HeldDuring sums the units held by reservations overlapping w. Malformed
// stored windows never conflict.
func HeldDuring(reservations []domain.Reservation, w domain.Window) (held, skipped int) {
	for _, r := range reservations {
		if !holds(domain.WindowHoldingStatuses, r.Status) {
			continue
		}
		if !r.Window.Valid() {
			skipped++
			continue
		}
		if r.Window.Overlaps(w) {
			held += r.Quantity
		}
	}
	return held, skipped
}

// Remaining is total minus held, floored at zero.
func Remaining(total, held int) int {
	if held >= total {
		return 0
	}
	return total - held
}

func holds(set []domain.ReservationStatus, status domain.ReservationStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

type AvailabilityRepository interface {
	GetAsset(ctx context.Context, assetID string) (domain.Asset, error)
	ListHolding(ctx context.Context, assetID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
}

// AvailabilityService answers read-only availability questions.
type AvailabilityService struct {
	repo   AvailabilityRepository
	clock  clock.Clock
	logger *zap.Logger
}

func NewAvailabilityService(repo AvailabilityRepository, clk clock.Clock, opts ...Option) *AvailabilityService {
	cfg := newServiceConfig(opts)
	return &AvailabilityService{
		repo:   repo,
		clock:  clk,
		logger: cfg.logger,
	}
}

// Availability returns free units for the window when one is given and
// free units right now otherwise.
func (s *AvailabilityService) Availability(ctx context.Context, assetID string, w *domain.Window) (int, error) {
	if w != nil {
		return s.AvailableFor(ctx, assetID, *w)
	}
	return s.AvailableNow(ctx, assetID)
}

func (s *AvailabilityService) AvailableNow(ctx context.Context, assetID string) (int, error) {
	asset, err := s.activeAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return s.availableNow(ctx, asset)
}

func (s *AvailabilityService) availableNow(ctx context.Context, asset domain.Asset) (int, error) {
	rows, err := s.repo.ListHolding(ctx, asset.ID, domain.InstantHoldingStatuses)
	if err != nil {
		return 0, err
	}
	held, skipped := HeldAt(rows, s.clock.Now())
	s.logSkipped(asset.ID, skipped)
	return Remaining(asset.TotalQuantity, held), nil
}

func (s *AvailabilityService) AvailableFor(ctx context.Context, assetID string, w domain.Window) (int, error) {
	if _, err := domain.NewWindow(w.Start, w.End); err != nil {
		return 0, err
	}
	asset, err := s.activeAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	rows, err := s.repo.ListHolding(ctx, asset.ID, domain.WindowHoldingStatuses)
	if err != nil {
		return 0, err
	}
	held, skipped := HeldDuring(rows, w)
	s.logSkipped(asset.ID, skipped)
	return Remaining(asset.TotalQuantity, held), nil
}

// activeAsset hides retired assets the same way admission does.
func (s *AvailabilityService) activeAsset(ctx context.Context, assetID string) (domain.Asset, error) {
	asset, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	if !asset.Active {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return asset, nil
}

func (s *AvailabilityService) logSkipped(assetID string, skipped int) {
	if skipped == 0 {
		return
	}
	s.logger.Warn("skipped reservations with malformed windows",
		zap.String("asset_id", assetID),
		zap.Int("count", skipped))
}
