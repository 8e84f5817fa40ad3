package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/repository"
)

// SnapshotWorker listens for snapshot saves made by any instance and drops the
// matching cached snapshots. Notifications are batched so a burst of saves for
// one target causes a single invalidation.
type SnapshotWorker struct {
	pool    *pgxpool.Pool
	cache   *CacheService
	batchMs time.Duration

	mu      sync.Mutex
	pending map[model.TargetRef]struct{}
}

func NewSnapshotWorker(pool *pgxpool.Pool, cache *CacheService) *SnapshotWorker {
	return &SnapshotWorker{
		pool:    pool,
		cache:   cache,
		batchMs: 5 * time.Second,
		pending: make(map[model.TargetRef]struct{}),
	}
}

// Start listens until ctx is cancelled, reconnecting after errors.
func (w *SnapshotWorker) Start(ctx context.Context) {
	log.Info().Dur("batch_window", w.batchMs).Msg("snapshot-worker: starting")

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("snapshot-worker: stopping (context cancelled)")
				return
			}
			log.Warn().Err(err).Msg("snapshot-worker: listen error, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				log.Info().Msg("snapshot-worker: stopping (context cancelled)")
				return
			}
		}
	}
}

func (w *SnapshotWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+repository.SnapshotChannel); err != nil {
		return err
	}
	log.Info().Str("channel", repository.SnapshotChannel).Msg("snapshot-worker: listening")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ref, ok := ParseSnapshotPayload(n.Payload)
		if !ok {
			log.Warn().Str("payload", n.Payload).Msg("snapshot-worker: malformed payload")
			continue
		}
		w.enqueue(ref)
	}
}

func (w *SnapshotWorker) enqueue(ref model.TargetRef) {
	w.mu.Lock()
	w.pending[ref] = struct{}{}
	w.mu.Unlock()
}

func (w *SnapshotWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.batchMs)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			w.flush(context.Background())
			return
		}
	}
}

// flush drains the pending set and returns how many entries were invalidated.
func (w *SnapshotWorker) flush(ctx context.Context) int {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return 0
	}
	batch := w.pending
	w.pending = make(map[model.TargetRef]struct{})
	w.mu.Unlock()

	invalidated := 0
	for ref := range batch {
		if err := w.cache.InvalidateSnapshot(ctx, ref.TargetType, ref.TargetID); err != nil {
			log.Warn().Err(err).Str("target_id", ref.TargetID).Msg("snapshot-worker: cache invalidate error")
			continue
		}
		invalidated++
	}

	log.Debug().Int("invalidated", invalidated).Int("targets", len(batch)).Msg("snapshot-worker: batch complete")
	return invalidated
}

// ParseSnapshotPayload decodes a "<target_type>:<target_id>" notification.
func ParseSnapshotPayload(payload string) (model.TargetRef, bool) {
	typ, id, ok := strings.Cut(payload, ":")
	if !ok || id == "" {
		return model.TargetRef{}, false
	}
	tt := model.TargetType(typ)
	if tt != model.TargetChannel && tt != model.TargetVideo {
		return model.TargetRef{}, false
	}
	return model.TargetRef{TargetID: id, TargetType: tt}, true
}
