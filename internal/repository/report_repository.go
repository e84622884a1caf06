package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// ReportRepository runs scoped aggregate queries.
type ReportRepository interface {
	Dashboard(ctx context.Context, scope ScopeFilter) (*domain.DashboardSummary, error)
	AgentPerformance(ctx context.Context, scope ScopeFilter) ([]domain.AgentPerformance, error)
	RegionSummary(ctx context.Context, scope ScopeFilter) ([]domain.RegionSummary, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates the repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const demandMissionAgent = "(SELECT m.agent_id FROM missions m WHERE m.demand_id = d.id)"

func (r *reportRepository) Dashboard(ctx context.Context, scope ScopeFilter) (*domain.DashboardSummary, error) {
	db := executor(ctx, r.pool)
	var summary domain.DashboardSummary

	var dw whereBuilder
	scope.apply(&dw, "d.target_region", demandMissionAgent)
	demandQuery := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE d.created_at >= date_trunc('month', NOW()))
        FROM demands d` + dw.sql()
	if err := db.QueryRow(ctx, demandQuery, dw.args...).Scan(&summary.TotalDemands, &summary.DemandsThisMonth); err != nil {
		return nil, err
	}

	var mw whereBuilder
	scope.apply(&mw, "d.target_region", "m.agent_id")
	missionQuery := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE m.status = 'Searching'),
               COUNT(*) FILTER (WHERE m.status = 'Found'),
               COUNT(*) FILTER (WHERE m.status = 'Leased')
        FROM missions m LEFT JOIN demands d ON d.id = m.demand_id` + mw.sql()
	if err := db.QueryRow(ctx, missionQuery, mw.args...).Scan(
		&summary.TotalMissions,
		&summary.Searching,
		&summary.Found,
		&summary.Leased,
	); err != nil {
		return nil, err
	}

	summary.SuccessRate = domain.SuccessRate(summary.Leased, summary.TotalMissions)
	return &summary, nil
}

func (r *reportRepository) AgentPerformance(ctx context.Context, scope ScopeFilter) ([]domain.AgentPerformance, error) {
	var w whereBuilder
	scope.apply(&w, "d.target_region", "m.agent_id")
	w.raw("m.agent_id IS NOT NULL")
	query := `
        SELECT m.agent_id, m.agent_name, COALESCE(u.home_region, ''),
               COUNT(*),
               COUNT(*) FILTER (WHERE m.status = 'Leased'),
               COUNT(*) FILTER (WHERE m.status = 'Found'),
               COUNT(*) FILTER (WHERE m.status = 'Searching')
        FROM missions m
        LEFT JOIN demands d ON d.id = m.demand_id
        LEFT JOIN users u ON u.id = m.agent_id` + w.sql() + `
        GROUP BY m.agent_id, m.agent_name, u.home_region
        ORDER BY COUNT(*) DESC, m.agent_name ASC`

	rows, err := executor(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AgentPerformance{}
	for rows.Next() {
		var row domain.AgentPerformance
		if err := rows.Scan(&row.AgentID, &row.AgentName, &row.Region, &row.Total, &row.Leased, &row.Found, &row.Searching); err != nil {
			return nil, err
		}
		row.SuccessRate = domain.SuccessRate(row.Leased, row.Total)
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *reportRepository) RegionSummary(ctx context.Context, scope ScopeFilter) ([]domain.RegionSummary, error) {
	var w whereBuilder
	scope.apply(&w, "d.target_region", "m.agent_id")
	query := `
        SELECT d.target_region,
               COUNT(DISTINCT d.id),
               COUNT(m.id),
               COUNT(m.id) FILTER (WHERE m.status = 'Searching'),
               COUNT(m.id) FILTER (WHERE m.status = 'Found'),
               COUNT(m.id) FILTER (WHERE m.status = 'Leased')
        FROM demands d
        LEFT JOIN missions m ON m.demand_id = d.id` + w.sql() + `
        GROUP BY d.target_region
        ORDER BY d.target_region`

	rows, err := executor(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RegionSummary{}
	for rows.Next() {
		var row domain.RegionSummary
		if err := rows.Scan(&row.Region, &row.Demands, &row.Missions, &row.Searching, &row.Found, &row.Leased); err != nil {
			return nil, err
		}
		row.SuccessRate = domain.SuccessRate(row.Leased, row.Missions)
		result = append(result, row)
	}
	return result, rows.Err()
}
