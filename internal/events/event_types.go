package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDemandCreated        EventType = "demand_created"
	EventDemandOrphaned       EventType = "demand_orphaned"
	EventMissionAssigned      EventType = "mission_assigned"
	EventMissionStatusChanged EventType = "mission_status_changed"
	EventMissionDeleted       EventType = "mission_deleted"
	EventInteractionAdded     EventType = "interaction_added"
)

// AllEventTypes lists every event type, for subscribers that react to any mutation.
func AllEventTypes() []EventType {
	return []EventType{
		EventDemandCreated,
		EventDemandOrphaned,
		EventMissionAssigned,
		EventMissionStatusChanged,
		EventMissionDeleted,
		EventInteractionAdded,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	DemandID  string      `json:"demand_id,omitempty"`
	MissionID string      `json:"mission_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New builds an event with a fresh id and timestamp.
func New(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DemandCreatedPayload payload.
type DemandCreatedPayload struct {
	Code         string `json:"code"`
	TargetRegion string `json:"target_region"`
	Client       string `json:"client"`
}

// DemandOrphanedPayload payload.
type DemandOrphanedPayload struct {
	Code         string `json:"code"`
	TargetRegion string `json:"target_region"`
	Reason       string `json:"reason"`
}

// MissionAssignedPayload payload.
type MissionAssignedPayload struct {
	DemandCode string `json:"demand_code"`
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name"`
	Automatic  bool   `json:"automatic"`
}

// MissionStatusChangedPayload payload.
type MissionStatusChangedPayload struct {
	OldStatus domain.MissionStatus `json:"old_status"`
	NewStatus domain.MissionStatus `json:"new_status"`
}

// MissionDeletedPayload payload.
type MissionDeletedPayload struct {
	DemandCode string `json:"demand_code"`
}

// InteractionAddedPayload payload.
type InteractionAddedPayload struct {
	InteractionID string `json:"interaction_id"`
	UserName      string `json:"user_name"`
	Preview       string `json:"preview"`
}
