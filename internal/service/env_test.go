package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/cache"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/observability"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *memStore
	tx        *memTransactor
	users     memUserRepo
	demands   memDemandRepo
	missions  memMissionRepo
	reportsDB *memReportRepo
	metrics   *observability.Metrics
	events    *eventRecorder

	regions    *RegionService
	intake     *IntakeService
	missionSvc *MissionService
	reports    *ReportService
	userSvc    *UserService
	clock      *time.Time
}

type eventRecorder struct {
	events []events.Event
}

func (r *eventRecorder) types() []events.EventType {
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type envOptions struct {
	allowRegression bool
	reportCache     *cache.ReportCache
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()
	options := envOptions{allowRegression: true}
	for _, opt := range opts {
		opt(&options)
	}

	store := newMemStore()
	env := &testEnv{
		store:    store,
		tx:       &memTransactor{store: store},
		users:    memUserRepo{s: store},
		demands:  memDemandRepo{s: store},
		missions: memMissionRepo{s: store},
		metrics:  observability.NewMetrics(),
		events:   &eventRecorder{},
	}
	now := fixedNow
	env.clock = &now
	clock := func() time.Time { return *env.clock }
	env.reportsDB = &memReportRepo{s: store, now: clock}

	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			env.events.events = append(env.events.events, e)
			return nil
		})
	}

	env.regions = NewRegionService(RegionDependencies{
		RegionRepo:    memRegionRepo{s: store},
		UserRepo:      env.users,
		StaticRegions: []string{"General", "Itapema", "Balneario_Camboriu", "Itajai"},
		DefaultRegion: "General",
	})
	assigner := NewAssignmentService(AssignmentDependencies{
		MissionRepo: env.missions,
		UserRepo:    env.users,
		Dispatcher:  dispatcher,
		Metrics:     env.metrics,
	})
	env.intake = NewIntakeService(IntakeDependencies{
		Transactor: env.tx,
		DemandRepo: env.demands,
		Regions:    env.regions,
		Assigner:   assigner,
		Dispatcher: dispatcher,
		Metrics:    env.metrics,
		Clock:      clock,
	})
	env.missionSvc = NewMissionService(MissionDependencies{
		Transactor:            env.tx,
		MissionRepo:           env.missions,
		DemandRepo:            env.demands,
		InteractionRepo:       memInteractionRepo{s: store},
		UserRepo:              env.users,
		Dispatcher:            dispatcher,
		Metrics:               env.metrics,
		AllowStatusRegression: options.allowRegression,
		Clock:                 clock,
	})
	env.reports = NewReportService(ReportDependencies{
		ReportRepo: env.reportsDB,
		DemandRepo: env.demands,
		Cache:      options.reportCache,
	})
	env.userSvc = NewUserService(UserDependencies{
		UserRepo:   env.users,
		Regions:    env.regions,
		BcryptCost: 4,
	})
	return env
}

func withoutRegression(o *envOptions) { o.allowRegression = false }

func (e *testEnv) addUser(t *testing.T, name string, role domain.Role, home string, responsible ...string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123", 4)
	require.NoError(t, err)
	user := &domain.User{
		Name:               name,
		Email:              name + "@example.com",
		PasswordHash:       hash,
		Role:               role,
		HomeRegion:         access.NormalizeRegion(home),
		ResponsibleRegions: access.NormalizeAll(responsible),
		Active:             true,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func principalOf(u *domain.User) access.Principal {
	return access.Principal{
		UserID:             u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		HomeRegion:         u.HomeRegion,
		ResponsibleRegions: u.ResponsibleRegions,
	}
}

func validDemand(region string) DemandInput {
	return DemandInput{
		Consultant:      "Marina",
		Client:          "Paulo Souza",
		Contact:         "+55 47 99999-0000",
		PropertyType:    "apartment",
		DesiredArea:     "Centro",
		TargetRegion:    region,
		RentRange:       "3000-4000",
		DesiredFeatures: "2 bedrooms, garage",
		Deadline:        "30 days",
	}
}

func (e *testEnv) allMissions(t *testing.T) []domain.Mission {
	t.Helper()
	missions, err := e.missions.List(context.Background(), repository.MissionFilter{})
	require.NoError(t, err)
	return missions
}
