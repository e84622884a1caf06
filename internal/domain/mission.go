package domain

import (
	"strings"
	"time"
)

// MissionStatus enumerates the mission lifecycle.
type MissionStatus string

const (
	MissionStatusSearching MissionStatus = "Searching"
	MissionStatusFound     MissionStatus = "Found"
	MissionStatusLeased    MissionStatus = "Leased"
)

var missionStatusRank = map[MissionStatus]int{
	MissionStatusSearching: 0,
	MissionStatusFound:     1,
	MissionStatusLeased:    2,
}

var missionStatusAliases = map[string]MissionStatus{
	"searching":  MissionStatusSearching,
	"em busca":   MissionStatusSearching,
	"found":      MissionStatusFound,
	"encontrado": MissionStatusFound,
	"leased":     MissionStatusLeased,
	"locado":     MissionStatusLeased,
}

// ParseMissionStatus maps a raw status, case-insensitively and including the
// legacy labels, to a MissionStatus.
func ParseMissionStatus(raw string) (MissionStatus, bool) {
	status, ok := missionStatusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// Before reports whether s comes strictly earlier than other in the lifecycle.
func (s MissionStatus) Before(other MissionStatus) bool {
	return missionStatusRank[s] < missionStatusRank[other]
}

// MissionStatuses lists statuses in lifecycle order.
func MissionStatuses() []MissionStatus {
	return []MissionStatus{MissionStatusSearching, MissionStatusFound, MissionStatusLeased}
}

// Mission assigns a demand to a field agent.
//
// DemandCode, AgentName and Consultant are copied at write time and may go
// stale if the source records change later. Region is read from the parent
// demand and is nil when the demand is missing.
type Mission struct {
	ID                string
	DemandID          *string
	DemandCode        string
	AgentID           *string
	AgentName         string
	Consultant        string
	SubArea           string
	SearchDescription string
	Status            MissionStatus
	CreatedAt         time.Time
	FoundAt           *time.Time
	LeasedAt          *time.Time
	ReturnedAt        *time.Time
	CreatedByID       *string
	Region            *string
}

// AssignedTo reports whether the mission belongs to the given agent.
func (m *Mission) AssignedTo(userID string) bool {
	return m.AgentID != nil && userID != "" && *m.AgentID == userID
}
