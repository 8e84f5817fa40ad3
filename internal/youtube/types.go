package youtube

import "time"

// Data API v3 response shapes. Counters are encoded as JSON strings.

type listResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type apiChannel struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		CustomURL   string    `json:"customUrl"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount       int64 `json:"viewCount,string"`
		SubscriberCount int64 `json:"subscriberCount,string"`
		VideoCount      int64 `json:"videoCount,string"`
	} `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type apiVideo struct {
	ID      string `json:"id"`
	Snippet struct {
		ChannelID   string    `json:"channelId"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Tags        []string  `json:"tags"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    int64 `json:"viewCount,string"`
		LikeCount    int64 `json:"likeCount,string"`
		CommentCount int64 `json:"commentCount,string"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type apiPlaylistItem struct {
	ContentDetails struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
