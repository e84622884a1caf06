package domain

// DashboardSummary aggregates demand and mission counts for a scope.
type DashboardSummary struct {
	TotalDemands     int64   `json:"total_demands"`
	DemandsThisMonth int64   `json:"demands_this_month"`
	TotalMissions    int64   `json:"total_missions"`
	Searching        int64   `json:"searching"`
	Found            int64   `json:"found"`
	Leased           int64   `json:"leased"`
	SuccessRate      float64 `json:"success_rate"`
}

// AgentPerformance is one row of the per-agent rollup.
type AgentPerformance struct {
	AgentID     string  `json:"agent_id"`
	AgentName   string  `json:"agent_name"`
	Region      string  `json:"region"`
	Total       int64   `json:"total"`
	Leased      int64   `json:"leased"`
	Found       int64   `json:"found"`
	Searching   int64   `json:"searching"`
	SuccessRate float64 `json:"success_rate"`
}

// RegionSummary is one row of the per-region rollup.
type RegionSummary struct {
	Region      string  `json:"region"`
	Demands     int64   `json:"demands"`
	Missions    int64   `json:"missions"`
	Searching   int64   `json:"searching"`
	Found       int64   `json:"found"`
	Leased      int64   `json:"leased"`
	SuccessRate float64 `json:"success_rate"`
}

// SuccessRate returns leased/total, or 0 when total is 0.
func SuccessRate(leased, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(leased) / float64(total)
}
