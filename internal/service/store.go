package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// SnapshotStore persists recommendation snapshots. Implementations must make
// a saved snapshot visible atomically: readers of the latest snapshot see
// either the previous one or the new one in full.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, targetID string, targetType model.TargetType, score *model.AlgorithmScore, recs []model.Recommendation, at time.Time) error
	GetLatestSnapshot(ctx context.Context, targetID string, targetType model.TargetType) (*model.Snapshot, error)
	GetRecommendation(ctx context.Context, id uuid.UUID) (*model.Recommendation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status, notes string) (*model.Recommendation, error)
	AddFeedback(ctx context.Context, id uuid.UUID, req model.FeedbackRequest) (*model.Feedback, error)
	History(ctx context.Context, targetID string, targetType model.TargetType, since time.Time) ([]model.SnapshotSummary, error)
	ListTargets(ctx context.Context) ([]model.TargetRef, error)
	PruneSnapshots(ctx context.Context, targetID string, targetType model.TargetType, keep int) (int64, error)
	ExpireStale(ctx context.Context, olderThan time.Time) (int64, error)
	Stats(ctx context.Context) (*model.StatsResponse, error)
}

// DataSource supplies channel and video data.
type DataSource interface {
	GetChannelData(ctx context.Context, channelID string) (*model.ChannelRecord, error)
	GetVideosDataBatch(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error)
	ListRecentVideoIDs(ctx context.Context, channel *model.ChannelRecord, limit int) ([]string, error)
}
