package model

import "time"

// ChannelRecord is the channel metadata supplied by the YouTube data source.
type ChannelRecord struct {
	ChannelID       string    `json:"channelId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CustomURL       string    `json:"customUrl,omitempty"`
	SubscriberCount int64     `json:"subscriberCount"`
	ViewCount       int64     `json:"viewCount"`
	VideoCount      int64     `json:"videoCount"`
	UploadsPlaylist string    `json:"-"`
	PublishedAt     time.Time `json:"publishedAt"`
}

// ChannelAnalysisRequest is the optional body of a channel recommendation
// request. When Videos is empty the videos are fetched from YouTube.
type ChannelAnalysisRequest struct {
	Channel *ChannelRecord `json:"channel,omitempty"`
	Videos  []VideoRecord  `json:"videos,omitempty" validate:"omitempty,dive"`
}

// ChannelScoreRequest is the API request body for scoring a set of videos.
type ChannelScoreRequest struct {
	Videos []VideoMetrics `json:"videos" validate:"dive"`
}

// ChannelAnalysisResponse is the API response after generating channel
// recommendations.
type ChannelAnalysisResponse struct {
	ChannelID       string           `json:"channelId"`
	Score           AlgorithmScore   `json:"score"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}
