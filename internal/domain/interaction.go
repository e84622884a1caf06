package domain

import "time"

// Interaction is an append-only note on a mission.
type Interaction struct {
	ID          string
	MissionID   string
	UserID      string
	UserName    string
	Description string
	CreatedAt   time.Time
}
