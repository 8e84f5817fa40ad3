package service

import (
	"context"
	"time"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// DefaultHistoryWindow bounds history queries without an explicit range.
const DefaultHistoryWindow = 90 * 24 * time.Hour

type StatsService struct {
	store SnapshotStore
	now   func() time.Time
}

func NewStatsService(store SnapshotStore) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// History returns snapshot summaries for a target generated after since,
// newest first. A zero since covers DefaultHistoryWindow.
func (s *StatsService) History(ctx context.Context, targetID string, targetType model.TargetType, since time.Time) (*model.HistoryResponse, error) {
	if since.IsZero() {
		since = s.now().Add(-DefaultHistoryWindow)
	}
	snaps, err := s.store.History(ctx, targetID, targetType, since)
	if err != nil {
		return nil, err
	}
	return &model.HistoryResponse{
		TargetID:   targetID,
		TargetType: targetType,
		Snapshots:  snaps,
	}, nil
}

// GetStats returns aggregate recommendation statistics.
func (s *StatsService) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	return s.store.Stats(ctx)
}
