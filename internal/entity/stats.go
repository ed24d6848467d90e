package entity

// Stats aggregates the persisted record set for the stats surface.
type Stats struct {
	Total         int              `json:"total"`
	Completed     int              `json:"completed"`
	Failed        int              `json:"failed"`
	InProgress    int              `json:"in_progress"`
	TopRequesters []RequesterCount `json:"top_requesters,omitempty"`
}

type RequesterCount struct {
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
	Count         int    `json:"count"`
}
