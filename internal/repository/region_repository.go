package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// RegionRepository stores region configuration rows.
type RegionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.RegionConfig, error)
	GetByKey(ctx context.Context, key string) (*domain.RegionConfig, error)
	Upsert(ctx context.Context, region *domain.RegionConfig) error
}

type regionRepository struct {
	pool *pgxpool.Pool
}

// NewRegionRepository instantiates the repository.
func NewRegionRepository(pool *pgxpool.Pool) RegionRepository {
	return &regionRepository{pool: pool}
}

func (r *regionRepository) List(ctx context.Context, activeOnly bool) ([]domain.RegionConfig, error) {
	query := `SELECT id, region_key, manager_id, active_flag, settings, created_at FROM region_configs`
	if activeOnly {
		query += ` WHERE active_flag`
	}
	query += ` ORDER BY region_key`

	rows, err := executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RegionConfig{}
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *region)
	}
	return result, rows.Err()
}

func (r *regionRepository) GetByKey(ctx context.Context, key string) (*domain.RegionConfig, error) {
	const query = `SELECT id, region_key, manager_id, active_flag, settings, created_at FROM region_configs WHERE region_key=$1`
	return scanRegion(executor(ctx, r.pool).QueryRow(ctx, query, key))
}

func (r *regionRepository) Upsert(ctx context.Context, region *domain.RegionConfig) error {
	const query = `
        INSERT INTO region_configs (region_key, manager_id, active_flag, settings)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (region_key) DO UPDATE
        SET manager_id=EXCLUDED.manager_id, active_flag=EXCLUDED.active_flag, settings=EXCLUDED.settings
        RETURNING id, created_at`
	settings := region.Settings
	if len(settings) == 0 {
		settings = []byte("{}")
	}
	return executor(ctx, r.pool).QueryRow(ctx, query,
		region.Key,
		region.ManagerID,
		region.Active,
		string(settings),
	).Scan(&region.ID, &region.CreatedAt)
}

func scanRegion(row pgx.Row) (*domain.RegionConfig, error) {
	var region domain.RegionConfig
	var settings []byte
	if err := row.Scan(&region.ID, &region.Key, &region.ManagerID, &region.Active, &settings, &region.CreatedAt); err != nil {
		return nil, err
	}
	region.Settings = settings
	return &region, nil
}
