package app

import (
	"context"
	"strings"

	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"go.uber.org/zap"
)

type CatalogRepository interface {
	CreateAsset(ctx context.Context, asset domain.Asset) error
	GetAsset(ctx context.Context, assetID string) (domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
}

// CatalogService manages the asset list and annotates it with current availability.
type CatalogService struct {
	repo         CatalogRepository
	availability *AvailabilityService
	clock        clock.Clock
	logger       *zap.Logger
}

func NewCatalogService(repo CatalogRepository, availability *AvailabilityService, clk clock.Clock, opts ...Option) *CatalogService {
	cfg := newServiceConfig(opts)
	return &CatalogService{
		repo:         repo,
		availability: availability,
		clock:        clk,
		logger:       cfg.logger,
	}
}

type CreateAssetInput struct {
	Name          string
	Type          string
	Location      string
	TotalQuantity int
}

func (s *CatalogService) CreateAsset(ctx context.Context, p domain.Principal, in CreateAssetInput) (domain.Asset, error) {
	if !p.IsAdmin() {
		return domain.Asset{}, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Asset{}, domain.NewValidationError("name", "required")
	}
	if in.TotalQuantity < 0 {
		return domain.Asset{}, domain.NewValidationError("total_quantity", "must not be negative")
	}

	asset := domain.Asset{
		ID:            newUUID(),
		Name:          name,
		Type:          strings.TrimSpace(in.Type),
		Location:      strings.TrimSpace(in.Location),
		TotalQuantity: in.TotalQuantity,
		Active:        true,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return domain.Asset{}, err
	}

	s.logger.Info("asset created",
		zap.String("asset_id", asset.ID),
		zap.Int("total_quantity", asset.TotalQuantity))
	return asset, nil
}

// ListAssets returns active assets matching filter with the units free right now.
func (s *CatalogService) ListAssets(ctx context.Context, filter domain.AssetFilter) ([]domain.AssetAvailability, error) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AssetAvailability, 0, len(assets))
	for _, a := range assets {
		if !a.Active || !filter.Matches(a) {
			continue
		}
		free, err := s.availability.availableNow(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.AssetAvailability{Asset: a, AvailableNow: free})
	}
	return out, nil
}

func (s *CatalogService) GetAsset(ctx context.Context, assetID string) (domain.AssetAvailability, error) {
	if strings.TrimSpace(assetID) == "" {
		return domain.AssetAvailability{}, domain.NewValidationError("asset_id", "required")
	}
	a, err := s.repo.GetAsset(ctx, assetID)
	if err != nil {
		return domain.AssetAvailability{}, err
	}
	if !a.Active {
		return domain.AssetAvailability{}, domain.ErrAssetNotFound
	}
	free, err := s.availability.availableNow(ctx, a)
	if err != nil {
		return domain.AssetAvailability{}, err
	}
	return domain.AssetAvailability{Asset: a, AvailableNow: free}, nil
}
