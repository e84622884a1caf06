package dto

import (
	"encoding/json"
	"time"
)

// UpsertRegionRequest payload.
type UpsertRegionRequest struct {
	ManagerID *string         `json:"manager_id"`
	Active    *bool           `json:"active"`
	Settings  json.RawMessage `json:"settings"`
}

// RegionResponse represents a region configuration.
type RegionResponse struct {
	ID        string          `json:"id,omitempty"`
	Key       string          `json:"key"`
	ManagerID *string         `json:"manager_id"`
	Active    bool            `json:"active"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}
