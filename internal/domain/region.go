package domain

import (
	"encoding/json"
	"time"
)

// RegionConfig is the admin-managed record for a region key.
type RegionConfig struct {
	ID        string
	Key       string
	ManagerID *string
	Active    bool
	Settings  json.RawMessage
	CreatedAt time.Time
}
