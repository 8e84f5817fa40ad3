package model

// StatsResponse aggregates recommendation counts across all targets.
type StatsResponse struct {
	TotalRecommendations int64            `json:"totalRecommendations"`
	TotalSnapshots       int64            `json:"totalSnapshots"`
	ByStatus             map[string]int64 `json:"byStatus"`
	ByCategory           map[string]int64 `json:"byCategory"`
	AverageRating        *float64         `json:"averageRating,omitempty"`
	FeedbackCount        int64            `json:"feedbackCount"`
	ImplementationRate   float64          `json:"implementationRate"`
}
