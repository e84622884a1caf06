package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

func withReportCache(c *cache.ReportCache) func(*envOptions) {
	return func(o *envOptions) { o.reportCache = c }
}

func redisReportCache(t *testing.T) *cache.ReportCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewReportCache(cache.NewStore(context.Background(), client), time.Minute, nil)
}

func TestDashboardWithoutMissions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin, "General")

	summary, err := env.reports.Dashboard(context.Background(), principalOf(admin))
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardSummary{}, *summary)

	perf, err := env.reports.Performance(context.Background(), principalOf(admin))
	require.NoError(t, err)
	assert.NotNil(t, perf)
	assert.Empty(t, perf)
}

func TestDashboardCountsAndScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", domain.RoleAdmin, "General")
	pedro := env.addUser(t, "pedro", domain.RoleRegionalManager, "Itapema", "Itapema")
	roberto := env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")
	env.addUser(t, "jenifer", domain.RoleFieldAgent, "Itapema")

	leased := env.seedMission(t, admin, "Itajai")
	env.seedMission(t, admin, "Itajai")
	found := env.seedMission(t, admin, "Itapema")
	_, err := env.missionSvc.UpdateStatus(ctx, principalOf(admin), leased.ID, "Leased")
	require.NoError(t, err)
	_, err = env.missionSvc.UpdateStatus(ctx, principalOf(admin), found.ID, "Found")
	require.NoError(t, err)

	all, err := env.reports.Dashboard(ctx, principalOf(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalDemands)
	assert.Equal(t, int64(3), all.DemandsThisMonth)
	assert.Equal(t, int64(3), all.TotalMissions)
	assert.Equal(t, int64(1), all.Searching)
	assert.Equal(t, int64(1), all.Found)
	assert.Equal(t, int64(1), all.Leased)
	assert.InDelta(t, 1.0/3.0, all.SuccessRate, 1e-9)

	regional, err := env.reports.Dashboard(ctx, principalOf(pedro))
	require.NoError(t, err)
	assert.Equal(t, int64(1), regional.TotalMissions)
	assert.Equal(t, int64(1), regional.Found)
	assert.Zero(t, regional.SuccessRate)

	own, err := env.reports.Dashboard(ctx, principalOf(roberto))
	require.NoError(t, err)
	assert.Equal(t, int64(2), own.TotalMissions)
	assert.Equal(t, 0.5, own.SuccessRate)

	perf, err := env.reports.Performance(ctx, principalOf(admin))
	require.NoError(t, err)
	require.Len(t, perf, 2)
	byAgent := map[string]domain.AgentPerformance{}
	for _, row := range perf {
		byAgent[row.AgentName] = row
	}
	assert.Equal(t, int64(2), byAgent["roberto"].Total)
	assert.Equal(t, "itajai", byAgent["roberto"].Region)
	assert.Equal(t, 0.5, byAgent["roberto"].SuccessRate)

	regions, err := env.reports.RegionSummary(ctx, principalOf(pedro))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "itapema", regions[0].Region)
	assert.Equal(t, int64(1), regions[0].Demands)
}

func TestOrphanedDemandsReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.addUser(t, "admin", domain.RoleAdmin, "General")
	pedro := env.addUser(t, "pedro", domain.RoleRegionalManager, "Itapema", "Itapema")
	env.addUser(t, "roberto", domain.RoleFieldAgent, "Itajai")

	env.seedMission(t, admin, "Itajai")
	orphan, err := env.intake.SubmitDemand(ctx, principalOf(admin), validDemand("Itapema"))
	require.NoError(t, err)
	_, err = env.intake.SubmitDemand(ctx, principalOf(admin), validDemand("General"))
	require.NoError(t, err)

	all, err := env.reports.OrphanedDemands(ctx, principalOf(admin), Page{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := env.reports.OrphanedDemands(ctx, principalOf(pedro), Page{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, orphan.ID, scoped[0].ID)
}

func TestReportsAreCachedPerScope(t *testing.T) {
	reportCache := redisReportCache(t)
	env := newTestEnv(t, withReportCache(reportCache))
	ctx := context.Background()
	admin := env.addUser(t, "admin", domain.RoleAdmin, "General")
	pedro := env.addUser(t, "pedro", domain.RoleRegionalManager, "Itapema", "Itapema")
	env.addUser(t, "jenifer", domain.RoleFieldAgent, "Itapema")
	env.seedMission(t, admin, "Itapema")

	first, err := env.reports.Dashboard(ctx, principalOf(admin))
	require.NoError(t, err)
	second, err := env.reports.Dashboard(ctx, principalOf(admin))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.reportsDB.calls)

	_, err = env.reports.Dashboard(ctx, principalOf(pedro))
	require.NoError(t, err)
	assert.Equal(t, 2, env.reportsDB.calls)

	env.seedMission(t, admin, "Itapema")
	stale, err := env.reports.Dashboard(ctx, principalOf(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.TotalMissions)

	require.NoError(t, reportCache.Invalidate(ctx))
	fresh, err := env.reports.Dashboard(ctx, principalOf(admin))
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.TotalMissions)
	assert.Equal(t, 3, env.reportsDB.calls)
}
