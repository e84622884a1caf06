package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
	"github.com/adim-imoveis/imovel-certo/internal/events"
	"github.com/adim-imoveis/imovel-certo/internal/observability"
	"github.com/adim-imoveis/imovel-certo/internal/repository"
)

// AssignmentOutcome classifies one auto-assignment attempt.
type AssignmentOutcome string

const (
	AssignmentCreated  AssignmentOutcome = "created"
	AssignmentExisting AssignmentOutcome = "existing"
	AssignmentOrphaned AssignmentOutcome = "orphaned"
)

const orphanReasonNoAgent = "no active field agent in region"

// AssignmentService routes demands to field agents as missions.
type AssignmentService struct {
	missions   repository.MissionRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	MissionRepo repository.MissionRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		missions:   deps.MissionRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     nopLogger(deps.Logger),
	}
}

// AutoAssign gives demand to the first active field agent of its target
// region, oldest account first. It must run inside a transaction so the
// candidate read and the mission insert commit together. A demand that
// already has a mission is left alone.
func (s *AssignmentService) AutoAssign(ctx context.Context, demand *domain.Demand, createdBy *string) (*domain.Mission, AssignmentOutcome, error) {
	exists, err := s.missions.ExistsForDemand(ctx, demand.ID)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, AssignmentExisting, nil
	}

	agents, err := s.users.ListActiveAgentsInRegion(ctx, demand.TargetRegion)
	if err != nil {
		return nil, "", err
	}
	if len(agents) == 0 {
		return nil, AssignmentOrphaned, nil
	}
	agent := agents[0]

	mission := newMissionForDemand(demand, &agent, createdBy)
	if err := s.missions.Create(ctx, mission); err != nil {
		return nil, "", err
	}
	return mission, AssignmentCreated, nil
}

// Announce reports the outcome of a committed assignment: events, counters
// and the orphaned-demand warning.
func (s *AssignmentService) Announce(ctx context.Context, actor events.Actor, demand *domain.Demand, mission *domain.Mission, outcome AssignmentOutcome, reason string) {
	switch outcome {
	case AssignmentCreated:
		s.metrics.Inc("missions_assigned")
		event := events.New(events.EventMissionAssigned, actor, events.MissionAssignedPayload{
			DemandCode: mission.DemandCode,
			AgentID:    derefString(mission.AgentID),
			AgentName:  mission.AgentName,
			Automatic:  true,
		})
		event.DemandID = demand.ID
		event.MissionID = mission.ID
		publish(ctx, s.dispatcher, event)
	case AssignmentOrphaned:
		if reason == "" {
			reason = orphanReasonNoAgent
		}
		s.metrics.Inc("demands_orphaned")
		s.logger.Warn("demand left without mission",
			zap.String("demand_code", demand.Code),
			zap.String("region", demand.TargetRegion),
			zap.String("reason", reason))
		event := events.New(events.EventDemandOrphaned, actor, events.DemandOrphanedPayload{
			Code:         demand.Code,
			TargetRegion: demand.TargetRegion,
			Reason:       reason,
		})
		event.DemandID = demand.ID
		publish(ctx, s.dispatcher, event)
	}
}

func newMissionForDemand(demand *domain.Demand, agent *domain.User, createdBy *string) *domain.Mission {
	description := strings.TrimSpace(demand.DesiredFeatures)
	if description == "" {
		description = "N/A"
	}
	demandID := demand.ID
	agentID := agent.ID
	region := demand.TargetRegion
	return &domain.Mission{
		DemandID:          &demandID,
		DemandCode:        demand.Code,
		AgentID:           &agentID,
		AgentName:         agent.Name,
		Consultant:        demand.Consultant,
		SubArea:           demand.DesiredArea,
		SearchDescription: description,
		Status:            domain.MissionStatusSearching,
		CreatedByID:       createdBy,
		Region:            &region,
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
