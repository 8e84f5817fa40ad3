package model

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackRequest is the API request body for rating a recommendation.
type FeedbackRequest struct {
	Rating  *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Text    string `json:"text,omitempty" validate:"max=2000"`
	Helpful *bool  `json:"helpful,omitempty"`
}

// Feedback is a stored feedback entry.
type Feedback struct {
	ID               int64      `json:"id"`
	RecommendationID uuid.UUID  `json:"recommendationId"`
	TargetID         string     `json:"targetId"`
	TargetType       TargetType `json:"targetType"`
	Rating           *int       `json:"rating,omitempty"`
	Text             string     `json:"text,omitempty"`
	Helpful          *bool      `json:"helpful,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// StatusUpdateRequest is the API request body for changing a recommendation's
// status.
type StatusUpdateRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending in_progress implemented dismissed expired"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}
