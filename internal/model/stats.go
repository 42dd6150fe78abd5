package model

// Stats are the dashboard counters.
type Stats struct {
	TotalPatients    int64 `json:"totalPatients" db:"total_patients"`
	TotalVisits      int64 `json:"totalVisits" db:"total_visits"`
	PendingActions   int64 `json:"pendingActions" db:"pending_actions"`
	CompletedActions int64 `json:"completedActions" db:"completed_actions"`
}
