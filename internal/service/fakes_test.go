package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// memStore is an in-memory stand-in for the relational store. Rows are kept
// by value so callers only see their writes after an explicit Update.
type memStore struct {
	mu           sync.Mutex
	users        map[string]domain.User
	demands      map[string]domain.Demand
	missions     map[string]domain.Mission
	interactions []domain.Interaction
	regions      map[string]domain.RegionConfig
	seq          int64
	ids          int

	failMissionCreate error
	failLockDemand    map[string]error
	locks             []string
}

type memSnapshot struct {
	users        map[string]domain.User
	demands      map[string]domain.Demand
	missions     map[string]domain.Mission
	interactions []domain.Interaction
	regions      map[string]domain.RegionConfig
	ids          int
}

func newMemStore() *memStore {
	return &memStore{
		users:          map[string]domain.User{},
		demands:        map[string]domain.Demand{},
		missions:       map[string]domain.Mission{},
		regions:        map[string]domain.RegionConfig{},
		failLockDemand: map[string]error{},
	}
}

func copyMap[T any](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		users:        copyMap(s.users),
		demands:      copyMap(s.demands),
		missions:     copyMap(s.missions),
		interactions: append([]domain.Interaction{}, s.interactions...),
		regions:      copyMap(s.regions),
		ids:          s.ids,
	}
}

// restore rolls back rows. The sequence is not restored, like a real one.
func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.demands = snap.demands
	s.missions = snap.missions
	s.interactions = snap.interactions
	s.regions = snap.regions
	s.ids = snap.ids
}

func (s *memStore) nextID(prefix string) (string, time.Time) {
	s.ids++
	return fmt.Sprintf("%s-%d", prefix, s.ids), baseTime.Add(time.Duration(s.ids) * time.Second)
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// memTransactor runs fn and restores the store snapshot when fn fails, which
// gives nested calls savepoint semantics.
type memTransactor struct {
	store *memStore
	calls int
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	user.ID, user.CreatedAt = r.s.nextID("user")
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memUserRepo) sorted() []domain.User {
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r memUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.sorted() {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Regions != nil && !contains(filter.Regions, u.HomeRegion) {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r memUserRepo) ListActiveAgentsInRegion(_ context.Context, region string) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.sorted() {
		if u.Role == domain.RoleFieldAgent && u.Active && u.HomeRegion == region {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUserRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

// --- demands ---

type memDemandRepo struct{ s *memStore }

func (r memDemandRepo) hasMission(id string) bool {
	for _, m := range r.s.missions {
		if m.DemandID != nil && *m.DemandID == id {
			return true
		}
	}
	return false
}

func (r memDemandRepo) missionAgent(id string) string {
	for _, m := range r.s.missions {
		if m.DemandID != nil && *m.DemandID == id && m.AgentID != nil {
			return *m.AgentID
		}
	}
	return ""
}

func (r memDemandRepo) Create(_ context.Context, demand *domain.Demand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.demands {
		if d.Code == demand.Code {
			return uniqueViolation("demands_code_key")
		}
	}
	demand.ID, demand.CreatedAt = r.s.nextID("demand")
	stored := *demand
	stored.HasMission = false
	r.s.demands[demand.ID] = stored
	return nil
}

func (r memDemandRepo) Update(_ context.Context, demand *domain.Demand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.demands[demand.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *demand
	updated.Code = current.Code
	updated.TargetRegion = current.TargetRegion
	r.s.demands[demand.ID] = updated
	return nil
}

func (r memDemandRepo) GetByID(_ context.Context, id string) (*domain.Demand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.demands[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	d.HasMission = r.hasMission(id)
	return &d, nil
}

func (r memDemandRepo) LockByID(ctx context.Context, id string) (*domain.Demand, error) {
	if err := r.s.failLockDemand[id]; err != nil {
		return nil, err
	}
	r.s.locks = append(r.s.locks, id)
	return r.GetByID(ctx, id)
}

func (r memDemandRepo) List(_ context.Context, filter repository.DemandFilter) ([]domain.Demand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Demand{}
	for _, d := range r.s.demands {
		d.HasMission = r.hasMission(d.ID)
		if filter.Scope.Regions != nil && !contains(filter.Scope.Regions, d.TargetRegion) {
			continue
		}
		if filter.Scope.AgentID != nil && r.missionAgent(d.ID) != *filter.Scope.AgentID {
			continue
		}
		if filter.Region != nil && d.TargetRegion != *filter.Region {
			continue
		}
		if filter.OrphanedOnly && d.HasMission {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			hay := strings.ToLower(d.Code + " " + d.Client + " " + d.DesiredArea)
			if !strings.Contains(hay, term) {
				continue
			}
		}
		if filter.CreatedFrom != nil && d.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && d.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memDemandRepo) ListRefs(_ context.Context) ([]repository.DemandRef, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []repository.DemandRef{}
	for _, d := range r.s.demands {
		out = append(out, repository.DemandRef{ID: d.ID, Code: d.Code, HasMission: r.hasMission(d.ID)})
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.demands[out[i].ID].CreatedAt.Before(r.s.demands[out[j].ID].CreatedAt)
	})
	return out, nil
}

func (r memDemandRepo) NextCodeSequence(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	return r.s.seq, nil
}

// --- missions ---

type memMissionRepo struct{ s *memStore }

// withRegion mimics the LEFT JOIN on demands.
func (r memMissionRepo) withRegion(m domain.Mission) domain.Mission {
	m.Region = nil
	if m.DemandID != nil {
		if d, ok := r.s.demands[*m.DemandID]; ok {
			region := d.TargetRegion
			m.Region = &region
		}
	}
	return m
}

func (r memMissionRepo) Create(_ context.Context, mission *domain.Mission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failMissionCreate != nil {
		return r.s.failMissionCreate
	}
	for _, m := range r.s.missions {
		if m.DemandID != nil && mission.DemandID != nil && *m.DemandID == *mission.DemandID {
			return uniqueViolation("missions_demand_id_key")
		}
	}
	mission.ID, mission.CreatedAt = r.s.nextID("mission")
	r.s.missions[mission.ID] = *mission
	return nil
}

func (r memMissionRepo) Update(_ context.Context, mission *domain.Mission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.missions[mission.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.missions[mission.ID] = *mission
	return nil
}

func (r memMissionRepo) GetByID(_ context.Context, id string) (*domain.Mission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.missions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	m = r.withRegion(m)
	return &m, nil
}

func (r memMissionRepo) LockByID(ctx context.Context, id string) (*domain.Mission, error) {
	r.s.locks = append(r.s.locks, id)
	return r.GetByID(ctx, id)
}

func (r memMissionRepo) ExistsForDemand(_ context.Context, demandID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.missions {
		if m.DemandID != nil && *m.DemandID == demandID {
			return true, nil
		}
	}
	return false, nil
}

func (r memMissionRepo) List(_ context.Context, filter repository.MissionFilter) ([]domain.Mission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Mission{}
	for _, m := range r.s.missions {
		m = r.withRegion(m)
		if !scopeMatches(filter.Scope, m) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, m.Status) {
			continue
		}
		if filter.AgentID != nil && (m.AgentID == nil || *m.AgentID != *filter.AgentID) {
			continue
		}
		if filter.DemandID != nil && (m.DemandID == nil || *m.DemandID != *filter.DemandID) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memMissionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.missions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.missions, id)
	return nil
}

// --- interactions ---

type memInteractionRepo struct{ s *memStore }

func (r memInteractionRepo) Create(_ context.Context, interaction *domain.Interaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	interaction.ID, interaction.CreatedAt = r.s.nextID("interaction")
	r.s.interactions = append(r.s.interactions, *interaction)
	return nil
}

func (r memInteractionRepo) ListByMission(_ context.Context, missionID string) ([]domain.Interaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Interaction{}
	for i := len(r.s.interactions) - 1; i >= 0; i-- {
		if r.s.interactions[i].MissionID == missionID {
			out = append(out, r.s.interactions[i])
		}
	}
	return out, nil
}

func (r memInteractionRepo) DeleteByMission(_ context.Context, missionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.interactions[:0]
	for _, i := range r.s.interactions {
		if i.MissionID != missionID {
			kept = append(kept, i)
		}
	}
	r.s.interactions = kept
	return nil
}

// --- regions ---

type memRegionRepo struct{ s *memStore }

func (r memRegionRepo) List(_ context.Context, activeOnly bool) ([]domain.RegionConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.RegionConfig{}
	for _, rc := range r.s.regions {
		if activeOnly && !rc.Active {
			continue
		}
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r memRegionRepo) GetByKey(_ context.Context, key string) (*domain.RegionConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rc, ok := r.s.regions[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rc, nil
}

func (r memRegionRepo) Upsert(_ context.Context, region *domain.RegionConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.regions[region.Key]; ok {
		region.ID, region.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		region.ID, region.CreatedAt = r.s.nextID("region")
	}
	r.s.regions[region.Key] = *region
	return nil
}

// --- reports ---

type memReportRepo struct {
	s     *memStore
	now   func() time.Time
	calls int
}

func (r *memReportRepo) scopedMissions(scope repository.ScopeFilter) []domain.Mission {
	missions, _ := memMissionRepo{s: r.s}.List(context.Background(), repository.MissionFilter{Scope: scope})
	return missions
}

func (r *memReportRepo) Dashboard(_ context.Context, scope repository.ScopeFilter) (*domain.DashboardSummary, error) {
	r.calls++
	demands, _ := memDemandRepo{s: r.s}.List(context.Background(), repository.DemandFilter{Scope: scope})
	out := &domain.DashboardSummary{TotalDemands: int64(len(demands))}
	now := r.now()
	for _, d := range demands {
		if d.CreatedAt.Year() == now.Year() && d.CreatedAt.Month() == now.Month() {
			out.DemandsThisMonth++
		}
	}
	for _, m := range r.scopedMissions(scope) {
		out.TotalMissions++
		switch m.Status {
		case domain.MissionStatusSearching:
			out.Searching++
		case domain.MissionStatusFound:
			out.Found++
		case domain.MissionStatusLeased:
			out.Leased++
		}
	}
	out.SuccessRate = domain.SuccessRate(out.Leased, out.TotalMissions)
	return out, nil
}

func (r *memReportRepo) AgentPerformance(_ context.Context, scope repository.ScopeFilter) ([]domain.AgentPerformance, error) {
	r.calls++
	rows := map[string]*domain.AgentPerformance{}
	var order []string
	for _, m := range r.scopedMissions(scope) {
		if m.AgentID == nil {
			continue
		}
		row, ok := rows[*m.AgentID]
		if !ok {
			row = &domain.AgentPerformance{AgentID: *m.AgentID, AgentName: m.AgentName}
			if u, found := r.s.users[*m.AgentID]; found {
				row.Region = u.HomeRegion
			}
			rows[*m.AgentID] = row
			order = append(order, *m.AgentID)
		}
		row.Total++
		switch m.Status {
		case domain.MissionStatusSearching:
			row.Searching++
		case domain.MissionStatusFound:
			row.Found++
		case domain.MissionStatusLeased:
			row.Leased++
		}
	}
	out := make([]domain.AgentPerformance, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.SuccessRate = domain.SuccessRate(row.Leased, row.Total)
		out = append(out, *row)
	}
	return out, nil
}

func (r *memReportRepo) RegionSummary(_ context.Context, scope repository.ScopeFilter) ([]domain.RegionSummary, error) {
	r.calls++
	rows := map[string]*domain.RegionSummary{}
	demands, _ := memDemandRepo{s: r.s}.List(context.Background(), repository.DemandFilter{Scope: scope})
	for _, d := range demands {
		row, ok := rows[d.TargetRegion]
		if !ok {
			row = &domain.RegionSummary{Region: d.TargetRegion}
			rows[d.TargetRegion] = row
		}
		row.Demands++
	}
	for _, m := range r.scopedMissions(scope) {
		if m.Region == nil {
			continue
		}
		row, ok := rows[*m.Region]
		if !ok {
			row = &domain.RegionSummary{Region: *m.Region}
			rows[*m.Region] = row
		}
		row.Missions++
		switch m.Status {
		case domain.MissionStatusSearching:
			row.Searching++
		case domain.MissionStatusFound:
			row.Found++
		case domain.MissionStatusLeased:
			row.Leased++
		}
	}
	out := make([]domain.RegionSummary, 0, len(rows))
	for _, row := range rows {
		row.SuccessRate = domain.SuccessRate(row.Leased, row.Missions)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}

func scopeMatches(scope repository.ScopeFilter, m domain.Mission) bool {
	if scope.AgentID != nil && (m.AgentID == nil || *m.AgentID != *scope.AgentID) {
		return false
	}
	if scope.Regions != nil && (m.Region == nil || !contains(scope.Regions, *m.Region)) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsStatus(values []domain.MissionStatus, v domain.MissionStatus) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
