package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// Redis key TTLs.
const (
	SnapshotCacheTTL          = 15 * time.Minute
	ScoreCacheTTL             = 5 * time.Minute
	DefaultGenerationCacheTTL = 24 * time.Hour
)

// Cache keyspaces, also used as metric labels.
const (
	keyspaceSnapshot   = "snapshot"
	keyspaceScore      = "score"
	keyspaceGeneration = "generation"
)

// CacheService provides a Redis cache-aside layer for latest snapshots, video
// scores and generation responses. With a nil client every operation is a
// no-op and every lookup misses.
type CacheService struct {
	rdb           *redis.Client
	generationTTL time.Duration
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, generationTTL time.Duration) *CacheService {
	if generationTTL <= 0 {
		generationTTL = DefaultGenerationCacheTTL
	}
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{generationTTL: generationTTL}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{generationTTL: generationTTL}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{generationTTL: generationTTL}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, generationTTL: generationTTL}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Enabled reports whether a Redis connection is configured.
func (c *CacheService) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetSnapshot retrieves the cached latest snapshot for a target. A nil
// snapshot with a nil error is a miss.
func (c *CacheService) GetSnapshot(ctx context.Context, targetType model.TargetType, targetID string) (*model.Snapshot, error) {
	var snap model.Snapshot
	ok, err := c.get(ctx, keyspaceSnapshot, snapshotKey(targetType, targetID), &snap)
	if !ok || err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetSnapshot stores the latest snapshot for a target.
func (c *CacheService) SetSnapshot(ctx context.Context, snap *model.Snapshot) error {
	return c.set(ctx, snapshotKey(snap.TargetType, snap.TargetID), snap, SnapshotCacheTTL)
}

// InvalidateSnapshot removes a target's cached snapshot (called after saves,
// status changes and feedback).
func (c *CacheService) InvalidateSnapshot(ctx context.Context, targetType model.TargetType, targetID string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, snapshotKey(targetType, targetID)).Err()
}

// GetScore retrieves a cached video score by metrics fingerprint.
func (c *CacheService) GetScore(ctx context.Context, fingerprint string) (*model.AlgorithmScore, error) {
	var score model.AlgorithmScore
	ok, err := c.get(ctx, keyspaceScore, scoreKey(fingerprint), &score)
	if !ok || err != nil {
		return nil, err
	}
	return &score, nil
}

// SetScore stores a video score by metrics fingerprint.
func (c *CacheService) SetScore(ctx context.Context, fingerprint string, score model.AlgorithmScore) error {
	return c.set(ctx, scoreKey(fingerprint), score, ScoreCacheTTL)
}

// GetGeneration retrieves a cached generation response by prompt key.
func (c *CacheService) GetGeneration(ctx context.Context, key string) (*GenerationResult, error) {
	var res GenerationResult
	ok, err := c.get(ctx, keyspaceGeneration, generationKey(key), &res)
	if !ok || err != nil {
		return nil, err
	}
	return &res, nil
}

// SetGeneration stores a generation response by prompt key.
func (c *CacheService) SetGeneration(ctx context.Context, key string, res *GenerationResult) error {
	return c.set(ctx, generationKey(key), res, c.generationTTL)
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) get(ctx context.Context, keyspace, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(keyspace).Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// A stale or corrupt entry is treated as a miss and dropped.
		c.rdb.Del(ctx, key)
		metrics.CacheMisses.WithLabelValues(keyspace).Inc()
		return false, nil
	}
	metrics.CacheHits.WithLabelValues(keyspace).Inc()
	return true, nil
}

func (c *CacheService) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func snapshotKey(targetType model.TargetType, targetID string) string {
	return fmt.Sprintf("snapshot:%s:%s", targetType, targetID)
}

func scoreKey(fingerprint string) string {
	return fmt.Sprintf("score:%s", fingerprint)
}

func generationKey(key string) string {
	return fmt.Sprintf("generation:%s", key)
}
