package memory

import (
	"context"
	"sort"

	"github.com/cimillas/asset-reservations/internal/domain"
	memdb "github.com/hashicorp/go-memdb"
)

func (s *Store) CreateAsset(ctx context.Context, asset domain.Asset) error {
	return s.write(ctx, func(txn *memdb.Txn) error {
		existing, err := txn.First(tableAssets, "id", asset.ID)
		if err != nil {
			return storageErr("create asset", err)
		}
		if existing != nil {
			return domain.NewValidationError("id", "asset already exists")
		}
		a := asset
		if err := txn.Insert(tableAssets, &a); err != nil {
			return storageErr("create asset", err)
		}
		return nil
	})
}

func (s *Store) GetAsset(ctx context.Context, assetID string) (domain.Asset, error) {
	txn, done := s.read(ctx)
	defer done()
	return getAsset(txn, assetID)
}

// GetAssetForUpdate is GetAsset; the enclosing write transaction already
// excludes every other writer.
func (s *Store) GetAssetForUpdate(ctx context.Context, assetID string) (domain.Asset, error) {
	return s.GetAsset(ctx, assetID)
}

func getAsset(txn *memdb.Txn, assetID string) (domain.Asset, error) {
	raw, err := txn.First(tableAssets, "id", assetID)
	if err != nil {
		return domain.Asset{}, storageErr("get asset", err)
	}
	if raw == nil {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return *raw.(*domain.Asset), nil
}

func (s *Store) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	txn, done := s.read(ctx)
	defer done()

	it, err := txn.Get(tableAssets, "id")
	if err != nil {
		return nil, storageErr("list assets", err)
	}
	var assets []domain.Asset
	for obj := it.Next(); obj != nil; obj = it.Next() {
		assets = append(assets, *obj.(*domain.Asset))
	}
	sort.SliceStable(assets, func(i, j int) bool {
		if !assets[i].CreatedAt.Equal(assets[j].CreatedAt) {
			return assets[i].CreatedAt.Before(assets[j].CreatedAt)
		}
		return assets[i].ID < assets[j].ID
	})
	return assets, nil
}

func (s *Store) CountActiveAssets(ctx context.Context) (int, error) {
	assets, err := s.ListAssets(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range assets {
		if a.Active {
			n++
		}
	}
	return n, nil
}
