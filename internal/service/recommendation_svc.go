package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/prompt"
	"github.com/agbarbosa/yt-ai-analyst-sub000/pkg/grammar"
)

var (
	// ErrNoVideos is returned when a channel analysis has no videos to score.
	ErrNoVideos = errors.New("no videos available for analysis")
	// ErrNoDataSource is returned when data must be fetched but no source is
	// configured.
	ErrNoDataSource = errors.New("no YouTube data source configured")
	// ErrVideoNotFound is returned when the data source has no such video.
	ErrVideoNotFound = errors.New("video not found")
)

const titleMaxTokens = 1024

// RecommendationConfig holds the generation parameters.
type RecommendationConfig struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	// InlineSystemPrompt renders the system prompt into the prompt text
	// instead of sending it as a separate system instruction.
	InlineSystemPrompt bool
	StrictPrompts      bool
	ValidateResponses  bool
	MinResponseLength  int
	MaxVideos          int
	Retrier            Retrier
}

// RecommendationService runs the recommendation pipeline: score, build a
// prompt, generate, parse, prioritize and persist a snapshot.
type RecommendationService struct {
	store   SnapshotStore
	gen     Generator
	source  DataSource
	cache   *CacheService
	scoring *ScoringService
	parser  *RecommendationParser
	catalog *prompt.Catalog
	builder prompt.Builder
	cfg     RecommendationConfig
	now     func() time.Time
}

// NewRecommendationService wires the pipeline. source and cache may be nil.
func NewRecommendationService(store SnapshotStore, gen Generator, source DataSource, cache *CacheService, cfg RecommendationConfig) *RecommendationService {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = prompt.DefaultSystemPrompt
	}
	if cfg.MinResponseLength <= 0 {
		cfg.MinResponseLength = DefaultMinLength
	}
	if cfg.MaxVideos <= 0 {
		cfg.MaxVideos = 25
	}
	if cfg.Retrier.MaxRetries <= 0 {
		cfg.Retrier = NewRetrier(cfg.Retrier.MaxRetries, cfg.Retrier.BaseDelay)
	}
	if cache == nil {
		cache = &CacheService{}
	}
	return &RecommendationService{
		store:   store,
		gen:     gen,
		source:  source,
		cache:   cache,
		scoring: NewScoringService(),
		parser:  NewRecommendationParser(),
		catalog: prompt.DefaultCatalog(),
		builder: prompt.Builder{Strict: cfg.StrictPrompts},
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateChannelRecommendations analyzes a channel from its videos and saves
// the channel score with the prioritized recommendations as one snapshot.
func (s *RecommendationService) GenerateChannelRecommendations(ctx context.Context, channel model.ChannelRecord, videos []model.VideoRecord) (*model.Snapshot, error) {
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}

	list := make([]model.VideoMetrics, len(videos))
	for i, v := range videos {
		list[i] = v.Metrics
	}
	score := s.scoring.ScoreChannel(list)
	avg := AverageMetrics(list)
	gaps := s.scoring.AnalyzeGaps(avg)
	metrics.ScoresComputed.WithLabelValues(string(model.TargetChannel)).Observe(score.Overall)

	vars := prompt.ChannelVariables(channel, videos, avg, score, gaps)
	recs, at, err := s.generate(ctx, prompt.ChannelAnalysis, vars, channel.ChannelID, model.TargetChannel)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, channel.ChannelID, model.TargetChannel, &score, recs, at); err != nil {
		return nil, err
	}

	log.Info().
		Str("channel_id", channel.ChannelID).
		Int("videos", len(videos)).
		Float64("score", score.Overall).
		Int("recommendations", len(recs)).
		Msg("channel recommendations generated")

	return &model.Snapshot{
		TargetID:        channel.ChannelID,
		TargetType:      model.TargetChannel,
		GeneratedAt:     at,
		Score:           &score,
		Recommendations: recs,
	}, nil
}

// GenerateVideoRecommendations analyzes one video. The snapshot carries no
// score; scores are persisted at channel level only.
func (s *RecommendationService) GenerateVideoRecommendations(ctx context.Context, video model.VideoRecord, score model.AlgorithmScore) (*model.Snapshot, error) {
	gaps := s.scoring.AnalyzeGaps(video.Metrics)
	vars := prompt.VideoVariables(video, score, gaps)

	recs, at, err := s.generate(ctx, prompt.VideoAnalysis, vars, video.VideoID, model.TargetVideo)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, video.VideoID, model.TargetVideo, nil, recs, at); err != nil {
		return nil, err
	}

	log.Info().
		Str("video_id", video.VideoID).
		Float64("score", score.Overall).
		Int("recommendations", len(recs)).
		Msg("video recommendations generated")

	return &model.Snapshot{
		TargetID:        video.VideoID,
		TargetType:      model.TargetVideo,
		GeneratedAt:     at,
		Recommendations: recs,
	}, nil
}

// OptimizeTitle returns alternative titles for a video. Nothing is persisted.
func (s *RecommendationService) OptimizeTitle(ctx context.Context, video model.VideoRecord) ([]string, error) {
	text, opts, err := s.render(prompt.TitleOptimization, prompt.TitleVariables(video))
	if err != nil {
		return nil, err
	}
	opts.MaxTokens = min(opts.MaxTokens, titleMaxTokens)

	res, err := s.cfg.Retrier.GenerateWithRetry(ctx, s.gen, text, opts)
	if err != nil {
		return nil, err
	}
	return grammar.ParseTitles(res.Content), nil
}

// LatestSnapshot returns the most recent snapshot for a target, or nil when
// none exists. Reads go through the cache.
func (s *RecommendationService) LatestSnapshot(ctx context.Context, targetID string, targetType model.TargetType) (*model.Snapshot, error) {
	if cached, err := s.cache.GetSnapshot(ctx, targetType, targetID); err != nil {
		log.Warn().Err(err).Msg("cache: get snapshot error")
	} else if cached != nil {
		return cached, nil
	}

	snap, err := s.store.GetLatestSnapshot(ctx, targetID, targetType)
	if err != nil || snap == nil {
		return nil, err
	}

	if err := s.cache.SetSnapshot(ctx, snap); err != nil {
		log.Warn().Err(err).Msg("cache: set snapshot error")
	}
	return snap, nil
}

// LoadChannel fetches a channel and its most recent videos from the data
// source.
func (s *RecommendationService) LoadChannel(ctx context.Context, channelID string) (*model.ChannelRecord, []model.VideoRecord, error) {
	if s.source == nil {
		return nil, nil, ErrNoDataSource
	}
	channel, err := s.source.GetChannelData(ctx, channelID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch channel: %w", err)
	}
	ids, err := s.source.ListRecentVideoIDs(ctx, channel, s.cfg.MaxVideos)
	if err != nil {
		return nil, nil, fmt.Errorf("list videos: %w", err)
	}
	videos, err := s.source.GetVideosDataBatch(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch videos: %w", err)
	}
	return channel, videos, nil
}

// LoadVideo fetches one video from the data source.
func (s *RecommendationService) LoadVideo(ctx context.Context, videoID string) (*model.VideoRecord, error) {
	if s.source == nil {
		return nil, ErrNoDataSource
	}
	videos, err := s.source.GetVideosDataBatch(ctx, []string{videoID})
	if err != nil {
		return nil, fmt.Errorf("fetch video: %w", err)
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, ErrVideoNotFound)
	}
	return &videos[0], nil
}

// generate renders the named template, calls the model with retries, applies
// the optional quality gate and parses the output into prioritized
// recommendations sharing one timestamp.
func (s *RecommendationService) generate(ctx context.Context, template string, vars map[string]any, targetID string, targetType model.TargetType) ([]model.Recommendation, time.Time, error) {
	text, opts, err := s.render(template, vars)
	if err != nil {
		return nil, time.Time{}, err
	}
	// Every request here is an explicit regeneration.
	opts.JSON = true
	opts.Fresh = true

	res, err := s.cfg.Retrier.GenerateWithRetry(ctx, s.gen, text, opts)
	if err != nil {
		return nil, time.Time{}, err
	}

	if s.cfg.ValidateResponses {
		if ok, reason := ValidateResponse(res.Content, s.cfg.MinResponseLength); !ok {
			metrics.ResponsesRejected.Inc()
			log.Warn().Str("target_id", targetID).Str("reason", reason).Msg("generated response rejected")
			return nil, time.Time{}, fmt.Errorf("%w: %s", ErrRejectedResponse, reason)
		}
	}

	at := s.now()
	recs := Prioritize(s.parser.ParseAt(res.Content, targetID, targetType, s.cfg.Model, at))
	if len(recs) == 0 {
		metrics.ResponsesRejected.Inc()
		log.Warn().Str("target_id", targetID).Msg("generated response is empty")
		return nil, time.Time{}, fmt.Errorf("%w: empty response", ErrRejectedResponse)
	}
	return recs, at, nil
}

func (s *RecommendationService) render(template string, vars map[string]any) (string, GenerateOptions, error) {
	tmpl, ok := s.catalog.Get(template)
	if !ok {
		return "", GenerateOptions{}, fmt.Errorf("unknown prompt template %q", template)
	}

	opts := GenerateOptions{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	inline := ""
	if s.cfg.InlineSystemPrompt {
		inline = s.cfg.SystemPrompt
	} else {
		opts.SystemPrompt = s.cfg.SystemPrompt
	}

	text, err := s.builder.Build(tmpl, vars, inline)
	if err != nil {
		return "", GenerateOptions{}, fmt.Errorf("build %s prompt: %w", template, err)
	}
	return strings.TrimSpace(text), opts, nil
}

func (s *RecommendationService) save(ctx context.Context, targetID string, targetType model.TargetType, score *model.AlgorithmScore, recs []model.Recommendation, at time.Time) error {
	if err := s.store.SaveSnapshot(ctx, targetID, targetType, score, recs, at); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	metrics.SnapshotsSaved.WithLabelValues(string(targetType)).Inc()

	if err := s.cache.InvalidateSnapshot(ctx, targetType, targetID); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate snapshot error")
	}
	return nil
}
