// Package youtube is a small YouTube Data API v3 client returning the channel
// and video records used for analysis.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// MaxBatchSize is the most IDs the videos endpoint accepts per call.
	MaxBatchSize = 50
)

// ErrNotFound is returned when a channel or video does not exist upstream.
var ErrNotFound = errors.New("youtube: not found")

// APIError is a non-2xx response from the Data API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube: API error %d: %s", e.StatusCode, e.Message)
}

// Client calls the Data API with an API key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetChannelData fetches channel metadata and statistics.
func (c *Client) GetChannelData(ctx context.Context, channelID string) (*model.ChannelRecord, error) {
	var resp listResponse[apiChannel]
	err := c.get(ctx, "channels", url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {channelID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}

	ch := resp.Items[0]
	return &model.ChannelRecord{
		ChannelID:       ch.ID,
		Title:           ch.Snippet.Title,
		Description:     ch.Snippet.Description,
		CustomURL:       ch.Snippet.CustomURL,
		SubscriberCount: ch.Statistics.SubscriberCount,
		ViewCount:       ch.Statistics.ViewCount,
		VideoCount:      ch.Statistics.VideoCount,
		UploadsPlaylist: ch.ContentDetails.RelatedPlaylists.Uploads,
		PublishedAt:     ch.Snippet.PublishedAt,
	}, nil
}

// GetVideosDataBatch fetches videos in batches of MaxBatchSize, preserving
// the order of ids. IDs the API does not return are skipped.
func (c *Client) GetVideosDataBatch(ctx context.Context, ids []string) ([]model.VideoRecord, error) {
	byID := make(map[string]model.VideoRecord, len(ids))
	for start := 0; start < len(ids); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(ids))

		var resp listResponse[apiVideo]
		err := c.get(ctx, "videos", url.Values{
			"part": {"snippet,statistics,contentDetails"},
			"id":   {strings.Join(ids[start:end], ",")},
		}, &resp)
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			byID[v.ID] = toVideoRecord(v)
		}
	}

	out := make([]model.VideoRecord, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
			delete(byID, id)
		}
	}
	return out, nil
}

// ListRecentVideoIDs returns up to limit video IDs from the channel's uploads
// playlist, newest first.
func (c *Client) ListRecentVideoIDs(ctx context.Context, channel *model.ChannelRecord, limit int) ([]string, error) {
	playlist := UploadsPlaylistID(channel)
	if playlist == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channel.ChannelID)
	}

	ids := make([]string, 0, limit)
	pageToken := ""
	for len(ids) < limit {
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {playlist},
			"maxResults": {fmt.Sprint(min(limit-len(ids), MaxBatchSize))},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp listResponse[apiPlaylistItem]
		if err := c.get(ctx, "playlistItems", params, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			if len(ids) == limit {
				break
			}
			ids = append(ids, item.ContentDetails.VideoID)
		}
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

// UploadsPlaylistID returns the channel's uploads playlist, deriving it from a
// "UC" channel ID when the API did not supply one.
func UploadsPlaylistID(channel *model.ChannelRecord) string {
	if channel.UploadsPlaylist != "" {
		return channel.UploadsPlaylist
	}
	if strings.HasPrefix(channel.ChannelID, "UC") {
		return "UU" + channel.ChannelID[2:]
	}
	return ""
}

func toVideoRecord(v apiVideo) model.VideoRecord {
	seconds, err := ParseDuration(v.ContentDetails.Duration)
	if err != nil && v.ContentDetails.Duration != "" {
		log.Warn().Err(err).Str("video_id", v.ID).Msg("youtube: unparseable duration")
	}

	return model.VideoRecord{
		VideoID:     v.ID,
		ChannelID:   v.Snippet.ChannelID,
		Title:       v.Snippet.Title,
		Description: v.Snippet.Description,
		Tags:        v.Snippet.Tags,
		PublishedAt: v.Snippet.PublishedAt,
		Metrics: model.VideoMetrics{
			VideoID:         v.ID,
			Views:           v.Statistics.ViewCount,
			Likes:           v.Statistics.LikeCount,
			Comments:        v.Statistics.CommentCount,
			DurationSeconds: seconds,
			IsShort:         IsShort(seconds),
		},
	}
}

func (c *Client) get(ctx context.Context, resource string, params url.Values, dst any) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/" + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("youtube: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube: %s request: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("youtube: read %s response: %w", resource, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", msg, ErrNotFound)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("youtube: decode %s response: %w", resource, err)
	}
	return nil
}
