package model

import "time"

// TrafficSource is the dominant way viewers reach a video.
type TrafficSource string

const (
	TrafficSearch TrafficSource = "search"
	TrafficBrowse TrafficSource = "browse"
)

// VideoMetrics holds the raw counters and ratios used for scoring a video.
// Percentages are expressed on a 0-100 scale.
type VideoMetrics struct {
	VideoID             string        `json:"videoId,omitempty"`
	Views               int64         `json:"views" validate:"gte=0"`
	Impressions         int64         `json:"impressions" validate:"gte=0"`
	CTR                 float64       `json:"ctr" validate:"gte=0,lte=100"`
	MainTrafficSource   TrafficSource `json:"mainTrafficSource" validate:"omitempty,oneof=search browse"`
	AvgPercentageViewed float64       `json:"avgPercentageViewed" validate:"gte=0"`
	AvgViewDuration     float64       `json:"avgViewDuration" validate:"gte=0"`
	DurationSeconds     float64       `json:"durationSeconds" validate:"gte=0"`
	RetentionAt15s      float64       `json:"retentionAt15s" validate:"gte=0,lte=100"`
	Likes               int64         `json:"likes" validate:"gte=0"`
	Comments            int64         `json:"comments" validate:"gte=0"`
	Shares              int64         `json:"shares" validate:"gte=0"`
	SubscribersGained   int64         `json:"subscribersGained"`
	SatisfactionScore   *float64      `json:"satisfactionScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	NegativeSignalRate  *float64      `json:"negativeSignalRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsShort             bool          `json:"isShort,omitempty"`
}

// VideoRecord is a video as supplied by the YouTube data source together with
// its metrics.
type VideoRecord struct {
	VideoID     string       `json:"videoId" validate:"required"`
	ChannelID   string       `json:"channelId,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	PublishedAt time.Time    `json:"publishedAt"`
	Metrics     VideoMetrics `json:"metrics"`
}

// VideoAnalysisRequest is the optional body of a video recommendation or
// title request. When Video is nil the video is fetched from YouTube.
type VideoAnalysisRequest struct {
	Video *VideoRecord `json:"video,omitempty"`
}

// VideoAnalysisResponse is the API response after generating video
// recommendations.
type VideoAnalysisResponse struct {
	VideoID         string           `json:"videoId"`
	Score           AlgorithmScore   `json:"score"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// TitleSuggestionsResponse is the API response for title optimization.
type TitleSuggestionsResponse struct {
	VideoID      string   `json:"videoId"`
	CurrentTitle string   `json:"currentTitle"`
	Titles       []string `json:"titles"`
}
