package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// DemandFilter captures listing parameters.
type DemandFilter struct {
	Scope        ScopeFilter
	Region       *string
	OrphanedOnly bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// DemandRef is a lightweight row used by the reconciliation scan.
type DemandRef struct {
	ID         string
	Code       string
	HasMission bool
}

// DemandRepository encapsulates demand persistence.
type DemandRepository interface {
	Create(ctx context.Context, demand *domain.Demand) error
	Update(ctx context.Context, demand *domain.Demand) error
	GetByID(ctx context.Context, id string) (*domain.Demand, error)
	// LockByID loads the demand with a row lock; it must run inside a transaction.
	LockByID(ctx context.Context, id string) (*domain.Demand, error)
	List(ctx context.Context, filter DemandFilter) ([]domain.Demand, error)
	ListRefs(ctx context.Context) ([]DemandRef, error)
	NextCodeSequence(ctx context.Context) (int64, error)
}

const demandColumns = `d.id, d.code, d.consultant, d.client, d.contact, d.property_type, d.desired_area, d.target_region,
        d.rent_range, d.desired_features, d.deadline, d.notes, d.created_by_id, d.created_at,
        EXISTS (SELECT 1 FROM missions m WHERE m.demand_id = d.id)`

type demandRepository struct {
	pool *pgxpool.Pool
}

// NewDemandRepository instantiates repository.
func NewDemandRepository(pool *pgxpool.Pool) DemandRepository {
	return &demandRepository{pool: pool}
}

func (r *demandRepository) Create(ctx context.Context, demand *domain.Demand) error {
	const query = `
        INSERT INTO demands (code, consultant, client, contact, property_type, desired_area, target_region,
            rent_range, desired_features, deadline, notes, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at`
	return executor(ctx, r.pool).QueryRow(ctx, query,
		demand.Code,
		demand.Consultant,
		demand.Client,
		demand.Contact,
		demand.PropertyType,
		demand.DesiredArea,
		demand.TargetRegion,
		demand.RentRange,
		demand.DesiredFeatures,
		demand.Deadline,
		demand.Notes,
		demand.CreatedByID,
	).Scan(&demand.ID, &demand.CreatedAt)
}

func (r *demandRepository) Update(ctx context.Context, demand *domain.Demand) error {
	const query = `
        UPDATE demands SET consultant=$1, client=$2, contact=$3, property_type=$4, desired_area=$5,
            rent_range=$6, desired_features=$7, deadline=$8, notes=$9
        WHERE id=$10`
	cmd, err := executor(ctx, r.pool).Exec(ctx, query,
		demand.Consultant,
		demand.Client,
		demand.Contact,
		demand.PropertyType,
		demand.DesiredArea,
		demand.RentRange,
		demand.DesiredFeatures,
		demand.Deadline,
		demand.Notes,
		demand.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *demandRepository) GetByID(ctx context.Context, id string) (*domain.Demand, error) {
	query := `SELECT ` + demandColumns + ` FROM demands d WHERE d.id=$1`
	return scanDemand(executor(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *demandRepository) LockByID(ctx context.Context, id string) (*domain.Demand, error) {
	query := `SELECT ` + demandColumns + ` FROM demands d WHERE d.id=$1 FOR UPDATE OF d`
	return scanDemand(executor(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *demandRepository) List(ctx context.Context, filter DemandFilter) ([]domain.Demand, error) {
	var w whereBuilder
	filter.Scope.apply(&w, "d.target_region", "(SELECT m.agent_id FROM missions m WHERE m.demand_id = d.id)")
	if filter.Region != nil {
		w.add("d.target_region=$%d", *filter.Region)
	}
	if filter.OrphanedOnly {
		w.raw("NOT EXISTS (SELECT 1 FROM missions m WHERE m.demand_id = d.id)")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		w.anyLike(strings.TrimSpace(*filter.SearchTerm), "d.code", "d.client", "d.desired_area")
	}
	if filter.CreatedFrom != nil {
		w.add("d.created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("d.created_at <= $%d", *filter.CreatedTo)
	}

	query := `SELECT ` + demandColumns + ` FROM demands d` + w.sql() +
		` ORDER BY d.created_at DESC` + pageClause(filter.Limit, filter.Offset, 50)

	rows, err := executor(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Demand{}
	for rows.Next() {
		demand, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *demand)
	}
	return result, rows.Err()
}

func (r *demandRepository) ListRefs(ctx context.Context) ([]DemandRef, error) {
	const query = `
        SELECT d.id, d.code, EXISTS (SELECT 1 FROM missions m WHERE m.demand_id = d.id)
        FROM demands d ORDER BY d.created_at ASC, d.id ASC`
	rows, err := executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DemandRef{}
	for rows.Next() {
		var ref DemandRef
		if err := rows.Scan(&ref.ID, &ref.Code, &ref.HasMission); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}

func (r *demandRepository) NextCodeSequence(ctx context.Context) (int64, error) {
	var n int64
	err := executor(ctx, r.pool).QueryRow(ctx, `SELECT nextval('demand_code_seq')`).Scan(&n)
	return n, err
}

func scanDemand(row pgx.Row) (*domain.Demand, error) {
	var demand domain.Demand
	if err := row.Scan(
		&demand.ID,
		&demand.Code,
		&demand.Consultant,
		&demand.Client,
		&demand.Contact,
		&demand.PropertyType,
		&demand.DesiredArea,
		&demand.TargetRegion,
		&demand.RentRange,
		&demand.DesiredFeatures,
		&demand.Deadline,
		&demand.Notes,
		&demand.CreatedByID,
		&demand.CreatedAt,
		&demand.HasMission,
	); err != nil {
		return nil, err
	}
	return &demand, nil
}
