package domain

import "time"

// Demand is a client's rental request.
//
// TargetRegion is the normalized region key used for authorization; DesiredArea
// is free text (neighborhood, street) and may differ.
type Demand struct {
	ID              string
	Code            string
	Consultant      string
	Client          string
	Contact         string
	PropertyType    string
	DesiredArea     string
	TargetRegion    string
	RentRange       string
	DesiredFeatures string
	Deadline        string
	Notes           string
	CreatedByID     *string
	CreatedAt       time.Time
	HasMission      bool
}
