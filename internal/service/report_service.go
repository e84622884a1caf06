package service

import (
	"context"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// ReportService computes scoped rollups over missions and demands.
type ReportService struct {
	reports repository.ReportRepository
	demands repository.DemandRepository
	cache   *cache.ReportCache
}

// ReportDependencies bundles collaborators.
type ReportDependencies struct {
	ReportRepo repository.ReportRepository
	DemandRepo repository.DemandRepository
	Cache      *cache.ReportCache
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{reports: deps.ReportRepo, demands: deps.DemandRepo, cache: deps.Cache}
}

// Dashboard returns demand and mission totals for the caller's scope.
func (s *ReportService) Dashboard(ctx context.Context, p access.Principal) (*domain.DashboardSummary, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	var out domain.DashboardSummary
	err = s.cache.Fetch(ctx, "dashboard", scope.Key(), &out, func(ctx context.Context) (any, error) {
		return s.reports.Dashboard(ctx, missionScope(scope))
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}

// Performance returns per-agent rollups for the caller's scope.
func (s *ReportService) Performance(ctx context.Context, p access.Principal) ([]domain.AgentPerformance, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	out := []domain.AgentPerformance{}
	err = s.cache.Fetch(ctx, "performance", scope.Key(), &out, func(ctx context.Context) (any, error) {
		return s.reports.AgentPerformance(ctx, missionScope(scope))
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return out, nil
}

// RegionSummary returns per-region rollups for the caller's scope.
func (s *ReportService) RegionSummary(ctx context.Context, p access.Principal) ([]domain.RegionSummary, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	out := []domain.RegionSummary{}
	err = s.cache.Fetch(ctx, "regions", scope.Key(), &out, func(ctx context.Context) (any, error) {
		return s.reports.RegionSummary(ctx, missionScope(scope))
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return out, nil
}

// OrphanedDemands lists demands in scope that still have no mission.
func (s *ReportService) OrphanedDemands(ctx context.Context, p access.Principal, page Page) ([]domain.Demand, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	demands, err := s.demands.List(ctx, repository.DemandFilter{
		Scope:        demandScope(scope),
		OrphanedOnly: true,
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return demands, nil
}
