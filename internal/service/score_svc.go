package service

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/pkg/hash"
)

// ScoreService serves algorithm scores for the HTTP and CLI surfaces. Video
// scores are cached by a fingerprint of their metrics, so identical inputs
// skip recomputation.
type ScoreService struct {
	scoring *ScoringService
	cache   *CacheService
}

func NewScoreService(cache *CacheService) *ScoreService {
	return &ScoreService{scoring: NewScoringService(), cache: cache}
}

// ScoreVideo scores a single video's metrics.
func (s *ScoreService) ScoreVideo(ctx context.Context, m model.VideoMetrics) model.AlgorithmScore {
	fp, err := Fingerprint(m)
	if err != nil {
		log.Warn().Err(err).Msg("score: fingerprint error")
	}

	if fp != "" {
		if cached, err := s.cache.GetScore(ctx, fp); err != nil {
			log.Warn().Err(err).Msg("cache: get score error")
		} else if cached != nil {
			return *cached
		}
	}

	score := s.scoring.ScoreVideo(m)
	metrics.ScoresComputed.WithLabelValues(string(model.TargetVideo)).Observe(score.Overall)

	if fp != "" {
		if err := s.cache.SetScore(ctx, fp, score); err != nil {
			log.Warn().Err(err).Msg("cache: set score error")
		}
	}
	return score
}

// ScoreChannel scores the mean of a channel's video metrics.
func (s *ScoreService) ScoreChannel(_ context.Context, videos []model.VideoMetrics) model.AlgorithmScore {
	score := s.scoring.ScoreChannel(videos)
	metrics.ScoresComputed.WithLabelValues(string(model.TargetChannel)).Observe(score.Overall)
	return score
}

// Gaps compares metrics against the benchmarks.
func (s *ScoreService) Gaps(m model.VideoMetrics) []model.PerformanceGap {
	return s.scoring.AnalyzeGaps(m)
}

// Fingerprint derives a stable key from a metrics set.
func Fingerprint(m model.VideoMetrics) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return hash.SHA256Hex(string(b)), nil
}
