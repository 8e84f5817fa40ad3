package model

import "time"

// Snapshot is the set of recommendations (and, for channels, the score)
// persisted together under one generation timestamp.
type Snapshot struct {
	TargetID        string           `json:"targetId"`
	TargetType      TargetType       `json:"targetType"`
	GeneratedAt     time.Time        `json:"generatedAt"`
	Score           *AlgorithmScore  `json:"score,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// SnapshotSummary is one entry in a target's snapshot history.
type SnapshotSummary struct {
	GeneratedAt         time.Time `json:"generatedAt"`
	Overall             *float64  `json:"overall,omitempty"`
	Grade               Grade     `json:"grade,omitempty"`
	RecommendationCount int       `json:"recommendationCount"`
}

// HistoryResponse is the API response for a target's snapshot history.
type HistoryResponse struct {
	TargetID   string            `json:"targetId"`
	TargetType TargetType        `json:"targetType"`
	Snapshots  []SnapshotSummary `json:"snapshots"`
}

// TargetRef names a target that has at least one snapshot.
type TargetRef struct {
	TargetID   string     `json:"targetId"`
	TargetType TargetType `json:"targetType"`
}
