package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is not allowed by the
// recommendation lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// TargetType identifies what a recommendation or snapshot belongs to.
type TargetType string

const (
	TargetChannel TargetType = "channel"
	TargetVideo   TargetType = "video"
)

// Category is one of the fixed recommendation tags.
type Category string

const (
	CategoryTitleOptimization     Category = "title_optimization"
	CategoryThumbnailOptimization Category = "thumbnail_optimization"
	CategoryDescriptionSEO        Category = "description_seo"
	CategoryTagsKeywords          Category = "tags_keywords"
	CategoryContentStructure      Category = "content_structure"
	CategoryHookImprovement       Category = "hook_improvement"
	CategoryRetentionOptimization Category = "retention_optimization"
	CategoryEngagementBoost       Category = "engagement_boost"
	CategoryCommunityBuilding     Category = "community_building"
	CategoryUploadSchedule        Category = "upload_schedule"
	CategoryShortsStrategy        Category = "shorts_strategy"
	CategoryPlaylistStrategy      Category = "playlist_strategy"
	CategoryAudienceTargeting     Category = "audience_targeting"
	CategoryMonetization          Category = "monetization"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryTitleOptimization,
	CategoryThumbnailOptimization,
	CategoryDescriptionSEO,
	CategoryTagsKeywords,
	CategoryContentStructure,
	CategoryHookImprovement,
	CategoryRetentionOptimization,
	CategoryEngagementBoost,
	CategoryCommunityBuilding,
	CategoryUploadSchedule,
	CategoryShortsStrategy,
	CategoryPlaylistStrategy,
	CategoryAudienceTargeting,
	CategoryMonetization,
}

// Priority tiers, most urgent first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns 0 for critical through 3 for low. Unknown priorities sort
// with medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Effort is the estimated cost of an action item.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Status is the lifecycle state of a recommendation.
type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusImplemented Status = "implemented"
	StatusDismissed   Status = "dismissed"
	StatusExpired     Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusImplemented, StatusDismissed, StatusExpired:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:     {StatusInProgress, StatusImplemented, StatusDismissed, StatusExpired},
	StatusInProgress:  {StatusImplemented, StatusDismissed, StatusExpired},
	StatusImplemented: {StatusExpired},
}

// CanTransition reports whether a recommendation may move from one status to
// another. Re-applying the current status is always allowed.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ActionItem is one concrete step of a recommendation.
type ActionItem struct {
	Action   string `json:"action"`
	Details  string `json:"details"`
	Effort   Effort `json:"effort"`
	Timeline string `json:"timeline"`
	Order    int    `json:"order"`
}

// ImpactEstimate quantifies the expected effect of a recommendation.
type ImpactEstimate struct {
	Metric            string  `json:"metric"`
	CurrentValue      float64 `json:"currentValue"`
	ProjectedValue    float64 `json:"projectedValue"`
	Improvement       float64 `json:"improvement"`
	Confidence        float64 `json:"confidence"`
	Timeframe         string  `json:"timeframe"`
	MeasurementMethod string  `json:"measurementMethod,omitempty"`
}

// Recommendation is a single AI-generated optimization suggestion.
type Recommendation struct {
	ID             uuid.UUID      `json:"id"`
	TargetID       string         `json:"targetId"`
	TargetType     TargetType     `json:"targetType"`
	Category       Category       `json:"category"`
	Priority       Priority       `json:"priority"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	ActionItems    []ActionItem   `json:"actionItems"`
	ExpectedImpact ImpactEstimate `json:"expectedImpact"`
	Confidence     float64        `json:"confidence"`
	GeneratedBy    string         `json:"generatedBy"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	ImplementedAt  *time.Time     `json:"implementedAt,omitempty"`
	UserRating     *int           `json:"userRating,omitempty"`
	Notes          string         `json:"notes,omitempty"`
}
