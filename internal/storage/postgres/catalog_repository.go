package postgres

import (
	"context"
	"errors"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const assetColumns = `id, name, type, location, total_quantity, active, created_at`

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Location, &a.TotalQuantity, &a.Active, &a.CreatedAt)
	return a, err
}

func (r *CatalogRepository) CreateAsset(ctx context.Context, asset domain.Asset) error {
	const stmt = `
INSERT INTO assets (id, name, type, location, total_quantity, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := exec(ctx, r.pool, stmt,
		asset.ID,
		asset.Name,
		asset.Type,
		asset.Location,
		asset.TotalQuantity,
		asset.Active,
		asset.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.NewValidationError("id", "must be a uuid")
		}
		if isUniqueViolation(err) {
			return domain.NewValidationError("id", "asset already exists")
		}
		return storageErr("create asset", err)
	}
	return nil
}

func (r *CatalogRepository) GetAsset(ctx context.Context, assetID string) (domain.Asset, error) {
	a, err := scanAsset(queryRow(ctx, r.pool, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, assetID))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, domain.ErrAssetNotFound
		}
		return domain.Asset{}, storageErr("get asset", err)
	}
	return a, nil
}

func (r *CatalogRepository) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	rows, err := query(ctx, r.pool, `SELECT `+assetColumns+` FROM assets ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, storageErr("list assets", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, storageErr("scan asset", err)
		}
		assets = append(assets, a)
	}
	if rows.Err() != nil {
		return nil, storageErr("iterate assets", rows.Err())
	}
	return assets, nil
}

func (r *CatalogRepository) CountActiveAssets(ctx context.Context) (int, error) {
	var n int
	if err := queryRow(ctx, r.pool, `SELECT COUNT(*) FROM assets WHERE active`).Scan(&n); err != nil {
		return 0, storageErr("count assets", err)
	}
	return n, nil
}
