package dto

import "time"

// CreateMissionRequest payload for manual assignment.
type CreateMissionRequest struct {
	DemandID          string `json:"demand_id"`
	AgentID           string `json:"agent_id"`
	SubArea           string `json:"sub_area"`
	SearchDescription string `json:"search_description"`
	Status            string `json:"status"`
}

// UpdateMissionRequest payload; absent fields are unchanged.
type UpdateMissionRequest struct {
	SubArea           *string    `json:"sub_area"`
	SearchDescription *string    `json:"search_description"`
	ReturnedAt        *time.Time `json:"returned_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// MissionResponse represents a mission.
type MissionResponse struct {
	ID                string     `json:"id"`
	DemandID          *string    `json:"demand_id"`
	DemandCode        string     `json:"demand_code"`
	AgentID           *string    `json:"agent_id"`
	AgentName         string     `json:"agent_name"`
	Consultant        string     `json:"consultant"`
	SubArea           string     `json:"sub_area"`
	SearchDescription string     `json:"search_description"`
	Status            string     `json:"status"`
	Region            *string    `json:"region"`
	CreatedAt         time.Time  `json:"created_at"`
	FoundAt           *time.Time `json:"found_at"`
	LeasedAt          *time.Time `json:"leased_at"`
	ReturnedAt        *time.Time `json:"returned_at"`
	CreatedByID       *string    `json:"created_by_id"`
}

// CreateInteractionRequest payload.
type CreateInteractionRequest struct {
	Description string `json:"description"`
}

// InteractionResponse represents a mission note.
type InteractionResponse struct {
	ID          string    `json:"id"`
	MissionID   string    `json:"mission_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
