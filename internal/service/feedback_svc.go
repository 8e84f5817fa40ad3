package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// FeedbackService records recommendation status changes and user feedback.
type FeedbackService struct {
	store SnapshotStore
	cache *CacheService
}

func NewFeedbackService(store SnapshotStore, cache *CacheService) *FeedbackService {
	if cache == nil {
		cache = &CacheService{}
	}
	return &FeedbackService{store: store, cache: cache}
}

// UpdateStatus moves a recommendation through its lifecycle. Illegal
// transitions return an error wrapping model.ErrInvalidTransition.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id uuid.UUID, req model.StatusUpdateRequest) (*model.Recommendation, error) {
	rec, err := s.store.UpdateStatus(ctx, id, model.Status(req.Status), req.Notes)
	if err != nil {
		return nil, err
	}

	// The cached snapshot embeds recommendation statuses.
	if err := s.cache.InvalidateSnapshot(ctx, rec.TargetType, rec.TargetID); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate snapshot error")
	}

	log.Info().
		Str("recommendation_id", id.String()).
		Str("status", string(rec.Status)).
		Msg("recommendation status updated")
	return rec, nil
}

// Submit records feedback on a recommendation.
func (s *FeedbackService) Submit(ctx context.Context, id uuid.UUID, req model.FeedbackRequest) (*model.Feedback, error) {
	fb, err := s.store.AddFeedback(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateSnapshot(ctx, fb.TargetType, fb.TargetID); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate snapshot error")
	}
	return fb, nil
}

// Get returns a single recommendation.
func (s *FeedbackService) Get(ctx context.Context, id uuid.UUID) (*model.Recommendation, error) {
	return s.store.GetRecommendation(ctx, id)
}
