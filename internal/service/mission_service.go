package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/access"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/observability"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
	apperrors "github.com/adim-imoveis/imovel-certo/pkg/util/errorutil"
)

// MissionService enforces the mission lifecycle and its interaction log.
type MissionService struct {
	tx              repository.Transactor
	missions        repository.MissionRepository
	demands         repository.DemandRepository
	interactions    repository.InteractionRepository
	users           repository.UserRepository
	dispatcher      events.Dispatcher
	metrics         *observability.Metrics
	logger          *zap.Logger
	allowRegression bool
	now             func() time.Time
}

// MissionDependencies bundles collaborators for the mission service.
type MissionDependencies struct {
	Transactor            repository.Transactor
	MissionRepo           repository.MissionRepository
	DemandRepo            repository.DemandRepository
	InteractionRepo       repository.InteractionRepository
	UserRepo              repository.UserRepository
	Dispatcher            events.Dispatcher
	Metrics               *observability.Metrics
	Logger                *zap.Logger
	AllowStatusRegression bool
	Clock                 func() time.Time
}

// MissionListFilter describes mission listing filters.
type MissionListFilter struct {
	Statuses []string
	AgentID  *string
	DemandID *string
	Page
}

// MissionCreateInput describes a manual mission.
type MissionCreateInput struct {
	DemandID          string
	AgentID           string
	SubArea           string
	SearchDescription string
	Status            string
}

// MissionUpdateInput carries field edits; nil fields are unchanged.
type MissionUpdateInput struct {
	SubArea           *string
	SearchDescription *string
	ReturnedAt        *time.Time
}

// NewMissionService constructs the service.
func NewMissionService(deps MissionDependencies) *MissionService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MissionService{
		tx:              deps.Transactor,
		missions:        deps.MissionRepo,
		demands:         deps.DemandRepo,
		interactions:    deps.InteractionRepo,
		users:           deps.UserRepo,
		dispatcher:      deps.Dispatcher,
		metrics:         deps.Metrics,
		logger:          nopLogger(deps.Logger),
		allowRegression: deps.AllowStatusRegression,
		now:             clock,
	}
}

// ListMissions returns missions visible to the caller, newest first.
func (s *MissionService) ListMissions(ctx context.Context, p access.Principal, filter MissionListFilter) ([]domain.Mission, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	statuses := make([]domain.MissionStatus, 0, len(filter.Statuses))
	for _, raw := range filter.Statuses {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		status, ok := domain.ParseMissionStatus(raw)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		statuses = append(statuses, status)
	}
	missions, err := s.missions.List(ctx, repository.MissionFilter{
		Scope:    missionScope(scope),
		Statuses: statuses,
		AgentID:  filter.AgentID,
		DemandID: filter.DemandID,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return missions, nil
}

// GetMission returns one mission the caller may access.
func (s *MissionService) GetMission(ctx context.Context, p access.Principal, id string) (*domain.Mission, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	return s.loadAccessible(ctx, scope, id, false, false)
}

// CreateMission assigns a demand to a chosen field agent by hand.
func (s *MissionService) CreateMission(ctx context.Context, p access.Principal, input MissionCreateInput) (*domain.Mission, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	input.DemandID = strings.TrimSpace(input.DemandID)
	input.AgentID = strings.TrimSpace(input.AgentID)
	if missing := missingFields(map[string]string{
		"demand_id": input.DemandID,
		"agent_id":  input.AgentID,
	}, "demand_id", "agent_id"); len(missing) > 0 {
		return nil, apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}
	status := domain.MissionStatusSearching
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := domain.ParseMissionStatus(input.Status)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status, "allowed": domain.MissionStatuses()})
		}
		status = parsed
	}

	var mission *domain.Mission
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		demand, err := s.demands.LockByID(ctx, input.DemandID)
		if err != nil {
			return notFoundOr(err, "demand", input.DemandID)
		}
		if !scope.CanManageRegion(demand.TargetRegion) {
			return apperrors.NewForbidden("access denied: cannot create missions in this region")
		}
		exists, err := s.missions.ExistsForDemand(ctx, demand.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflict("demand already has a mission", map[string]any{"demand_id": demand.ID})
		}

		agent, err := s.users.GetByID(ctx, input.AgentID)
		if err != nil {
			return notFoundOr(err, "user", input.AgentID)
		}
		if agent.Role != domain.RoleFieldAgent || !agent.Active {
			return apperrors.NewValidationError("assignee must be an active field agent", map[string]any{"agent_id": input.AgentID})
		}

		mission = newMissionForDemand(demand, agent, strPtr(p.UserID))
		if v := strings.TrimSpace(input.SubArea); v != "" {
			mission.SubArea = v
		}
		if v := strings.TrimSpace(input.SearchDescription); v != "" {
			mission.SearchDescription = v
		}
		mission.Status = status
		s.stamp(mission, domain.MissionStatusSearching, status)

		if err := s.missions.Create(ctx, mission); err != nil {
			if apperrors.HasCode(apperrors.MapError(err), "CONFLICT") {
				return apperrors.NewConflict("demand already has a mission", map[string]any{"demand_id": demand.ID})
			}
			return err
		}
		if mission.Status != domain.MissionStatusSearching {
			return s.missions.Update(ctx, mission)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.Inc("missions_assigned")
	event := events.New(events.EventMissionAssigned, actorOf(p), events.MissionAssignedPayload{
		DemandCode: mission.DemandCode,
		AgentID:    derefString(mission.AgentID),
		AgentName:  mission.AgentName,
	})
	event.DemandID = derefString(mission.DemandID)
	event.MissionID = mission.ID
	publish(ctx, s.dispatcher, event)
	return mission, nil
}

// UpdateMission edits the free-text fields and the return date.
func (s *MissionService) UpdateMission(ctx context.Context, p access.Principal, id string, input MissionUpdateInput) (*domain.Mission, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	var mission *domain.Mission
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.loadAccessible(ctx, scope, id, true, true)
		if err != nil {
			return err
		}
		mission = m
		if input.SubArea != nil {
			v := strings.TrimSpace(*input.SubArea)
			if v == "" {
				return apperrors.NewValidationError("sub_area cannot be blank", nil)
			}
			mission.SubArea = v
		}
		if input.SearchDescription != nil {
			v := strings.TrimSpace(*input.SearchDescription)
			if v == "" {
				return apperrors.NewValidationError("search_description cannot be blank", nil)
			}
			mission.SearchDescription = v
		}
		if input.ReturnedAt != nil {
			returned := input.ReturnedAt.UTC()
			mission.ReturnedAt = &returned
		}
		return s.missions.Update(ctx, mission)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return mission, nil
}

// UpdateStatus moves a mission through Searching, Found and Leased. Found and
// Leased times are stamped the first time the state is entered by a forward
// move; the return time records every change. Backward moves are allowed or rejected
// according to configuration.
func (s *MissionService) UpdateStatus(ctx context.Context, p access.Principal, id, rawStatus string) (*domain.Mission, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	newStatus, ok := domain.ParseMissionStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": rawStatus, "allowed": domain.MissionStatuses()})
	}

	var (
		mission   *domain.Mission
		oldStatus domain.MissionStatus
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.loadAccessible(ctx, scope, id, true, true)
		if err != nil {
			return err
		}
		mission = m
		oldStatus = mission.Status
		if newStatus.Before(oldStatus) && !s.allowRegression {
			return apperrors.NewConflict("status cannot move backward", map[string]any{
				"from": oldStatus,
				"to":   newStatus,
			})
		}

		mission.Status = newStatus
		s.stamp(mission, oldStatus, newStatus)
		changedAt := s.now().UTC()
		mission.ReturnedAt = &changedAt
		if err := s.missions.Update(ctx, mission); err != nil {
			return err
		}
		return s.interactions.Create(ctx, &domain.Interaction{
			MissionID:   mission.ID,
			UserID:      p.UserID,
			UserName:    p.Name,
			Description: fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.Inc("mission_status_changes")
	event := events.New(events.EventMissionStatusChanged, actorOf(p), events.MissionStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	event.DemandID = derefString(mission.DemandID)
	event.MissionID = mission.ID
	publish(ctx, s.dispatcher, event)
	return mission, nil
}

// AddInteraction appends a note to the mission log.
func (s *MissionService) AddInteraction(ctx context.Context, p access.Principal, missionID, description string) (*domain.Interaction, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"fields": []string{"description"}})
	}
	var (
		mission     *domain.Mission
		interaction *domain.Interaction
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.loadAccessible(ctx, scope, missionID, true, true)
		if err != nil {
			return err
		}
		mission = m
		interaction = &domain.Interaction{
			MissionID:   mission.ID,
			UserID:      p.UserID,
			UserName:    p.Name,
			Description: description,
		}
		return s.interactions.Create(ctx, interaction)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	event := events.New(events.EventInteractionAdded, actorOf(p), events.InteractionAddedPayload{
		InteractionID: interaction.ID,
		UserName:      interaction.UserName,
		Preview:       preview(description, 80),
	})
	event.DemandID = derefString(mission.DemandID)
	event.MissionID = mission.ID
	publish(ctx, s.dispatcher, event)
	return interaction, nil
}

// ListInteractions returns the mission log, most recent first.
func (s *MissionService) ListInteractions(ctx context.Context, p access.Principal, missionID string) ([]domain.Interaction, error) {
	scope, err := access.Resolve(p)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadAccessible(ctx, scope, missionID, false, false); err != nil {
		return nil, err
	}
	items, err := s.interactions.ListByMission(ctx, missionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// DeleteMission removes a mission and its interactions. Field agents may
// never delete.
func (s *MissionService) DeleteMission(ctx context.Context, p access.Principal, id string) error {
	scope, err := access.Resolve(p)
	if err != nil {
		return err
	}
	if p.Role == domain.RoleFieldAgent {
		return apperrors.NewForbidden("access denied: field agents cannot delete missions")
	}

	var mission *domain.Mission
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.missions.LockByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "mission", id)
		}
		mission = m
		if !scope.CanDeleteMission(mission) {
			return apperrors.NewForbidden("access denied: mission is outside your regions")
		}
		if err := s.interactions.DeleteByMission(ctx, mission.ID); err != nil {
			return err
		}
		return s.missions.Delete(ctx, mission.ID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("mission deleted", zap.String("mission_id", mission.ID), zap.String("actor_id", p.UserID))
	event := events.New(events.EventMissionDeleted, actorOf(p), events.MissionDeletedPayload{DemandCode: mission.DemandCode})
	event.DemandID = derefString(mission.DemandID)
	event.MissionID = mission.ID
	publish(ctx, s.dispatcher, event)
	return nil
}

// loadAccessible fetches a mission and applies the mission-level check. With
// requireDemand a mission whose parent demand is gone is reported missing.
func (s *MissionService) loadAccessible(ctx context.Context, scope access.Scope, id string, lock, requireDemand bool) (*domain.Mission, error) {
	var (
		mission *domain.Mission
		err     error
	)
	if lock {
		mission, err = s.missions.LockByID(ctx, id)
	} else {
		mission, err = s.missions.GetByID(ctx, id)
	}
	if err != nil {
		return nil, notFoundOr(err, "mission", id)
	}
	if requireDemand && (mission.DemandID == nil || mission.Region == nil) {
		return nil, apperrors.NewNotFound("demand", map[string]any{"mission_id": id})
	}
	if !scope.CanAccessMission(mission) {
		return nil, apperrors.NewForbidden("access denied: mission is outside your scope")
	}
	return mission, nil
}

// stamp records the milestone time when a mission moves forward into Found or
// Leased. Backward moves and re-entries never set or overwrite a milestone.
func (s *MissionService) stamp(mission *domain.Mission, from, to domain.MissionStatus) {
	if !from.Before(to) {
		return
	}
	now := s.now().UTC()
	switch to {
	case domain.MissionStatusFound:
		if mission.FoundAt == nil {
			mission.FoundAt = &now
		}
	case domain.MissionStatusLeased:
		if mission.LeasedAt == nil {
			mission.LeasedAt = &now
		}
	}
}

func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
