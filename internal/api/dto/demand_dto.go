package dto

import "time"

// CreateDemandRequest payload.
type CreateDemandRequest struct {
	Code            string `json:"code"`
	Consultant      string `json:"consultant"`
	Client          string `json:"client"`
	Contact         string `json:"contact"`
	PropertyType    string `json:"property_type"`
	DesiredArea     string `json:"desired_area"`
	TargetRegion    string `json:"target_region"`
	RentRange       string `json:"rent_range"`
	DesiredFeatures string `json:"desired_features"`
	Deadline        string `json:"deadline"`
	Notes           string `json:"notes"`
}

// UpdateDemandRequest payload; absent fields are unchanged.
type UpdateDemandRequest struct {
	Consultant      *string `json:"consultant"`
	Client          *string `json:"client"`
	Contact         *string `json:"contact"`
	PropertyType    *string `json:"property_type"`
	DesiredArea     *string `json:"desired_area"`
	RentRange       *string `json:"rent_range"`
	DesiredFeatures *string `json:"desired_features"`
	Deadline        *string `json:"deadline"`
	Notes           *string `json:"notes"`
}

// DemandResponse represents a demand.
type DemandResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Consultant      string    `json:"consultant"`
	Client          string    `json:"client"`
	Contact         string    `json:"contact"`
	PropertyType    string    `json:"property_type"`
	DesiredArea     string    `json:"desired_area"`
	TargetRegion    string    `json:"target_region"`
	RentRange       string    `json:"rent_range"`
	DesiredFeatures string    `json:"desired_features"`
	Deadline        string    `json:"deadline"`
	Notes           string    `json:"notes"`
	CreatedByID     *string   `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
	HasMission      bool      `json:"has_mission"`
}
