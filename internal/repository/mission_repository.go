package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// MissionFilter captures mission listing parameters.
type MissionFilter struct {
	Scope    ScopeFilter
	Statuses []domain.MissionStatus
	AgentID  *string
	DemandID *string
	Limit    int
	Offset   int
}

// MissionRepository encapsulates mission persistence.
type MissionRepository interface {
	Create(ctx context.Context, mission *domain.Mission) error
	Update(ctx context.Context, mission *domain.Mission) error
	GetByID(ctx context.Context, id string) (*domain.Mission, error)
	// LockByID loads the mission with a row lock; it must run inside a transaction.
	LockByID(ctx context.Context, id string) (*domain.Mission, error)
	ExistsForDemand(ctx context.Context, demandID string) (bool, error)
	List(ctx context.Context, filter MissionFilter) ([]domain.Mission, error)
	Delete(ctx context.Context, id string) error
}

const missionColumns = `m.id, m.demand_id, m.demand_code, m.agent_id, m.agent_name, m.consultant, m.sub_area,
        m.search_description, m.status, m.created_at, m.found_at, m.leased_at, m.returned_at,
        m.created_by_id, d.target_region`

const missionFrom = ` FROM missions m LEFT JOIN demands d ON d.id = m.demand_id`

type missionRepository struct {
	pool *pgxpool.Pool
}

// NewMissionRepository instantiates repository.
func NewMissionRepository(pool *pgxpool.Pool) MissionRepository {
	return &missionRepository{pool: pool}
}

func (r *missionRepository) Create(ctx context.Context, mission *domain.Mission) error {
	const query = `
        INSERT INTO missions (demand_id, demand_code, agent_id, agent_name, consultant, sub_area,
            search_description, status, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return executor(ctx, r.pool).QueryRow(ctx, query,
		mission.DemandID,
		mission.DemandCode,
		mission.AgentID,
		mission.AgentName,
		mission.Consultant,
		mission.SubArea,
		mission.SearchDescription,
		mission.Status,
		mission.CreatedByID,
	).Scan(&mission.ID, &mission.CreatedAt)
}

func (r *missionRepository) Update(ctx context.Context, mission *domain.Mission) error {
	const query = `
        UPDATE missions SET agent_id=$1, agent_name=$2, sub_area=$3, search_description=$4, status=$5,
            found_at=$6, leased_at=$7, returned_at=$8
        WHERE id=$9`
	cmd, err := executor(ctx, r.pool).Exec(ctx, query,
		mission.AgentID,
		mission.AgentName,
		mission.SubArea,
		mission.SearchDescription,
		mission.Status,
		mission.FoundAt,
		mission.LeasedAt,
		mission.ReturnedAt,
		mission.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *missionRepository) GetByID(ctx context.Context, id string) (*domain.Mission, error) {
	query := `SELECT ` + missionColumns + missionFrom + ` WHERE m.id=$1`
	return scanMission(executor(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *missionRepository) LockByID(ctx context.Context, id string) (*domain.Mission, error) {
	query := `SELECT ` + missionColumns + missionFrom + ` WHERE m.id=$1 FOR UPDATE OF m`
	return scanMission(executor(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *missionRepository) ExistsForDemand(ctx context.Context, demandID string) (bool, error) {
	var exists bool
	err := executor(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM missions WHERE demand_id=$1)`, demandID).Scan(&exists)
	return exists, err
}

func (r *missionRepository) List(ctx context.Context, filter MissionFilter) ([]domain.Mission, error) {
	var w whereBuilder
	filter.Scope.apply(&w, "d.target_region", "m.agent_id")
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		w.in("m.status", statuses)
	}
	if filter.AgentID != nil {
		w.add("m.agent_id=$%d", *filter.AgentID)
	}
	if filter.DemandID != nil {
		w.add("m.demand_id=$%d", *filter.DemandID)
	}

	query := `SELECT ` + missionColumns + missionFrom + w.sql() +
		` ORDER BY m.created_at DESC, m.id DESC` + pageClause(filter.Limit, filter.Offset, 50)

	rows, err := executor(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Mission{}
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *mission)
	}
	return result, rows.Err()
}

func (r *missionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM missions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMission(row pgx.Row) (*domain.Mission, error) {
	var mission domain.Mission
	if err := row.Scan(
		&mission.ID,
		&mission.DemandID,
		&mission.DemandCode,
		&mission.AgentID,
		&mission.AgentName,
		&mission.Consultant,
		&mission.SubArea,
		&mission.SearchDescription,
		&mission.Status,
		&mission.CreatedAt,
		&mission.FoundAt,
		&mission.LeasedAt,
		&mission.ReturnedAt,
		&mission.CreatedByID,
		&mission.Region,
	); err != nil {
		return nil, err
	}
	return &mission, nil
}
