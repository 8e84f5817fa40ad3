package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// SnapshotInvalidator drops cached latest snapshots. *CacheService
// implements it.
type SnapshotInvalidator interface {
	InvalidateSnapshot(ctx context.Context, targetType model.TargetType, targetID string) error
}

// MaintenanceConfig controls snapshot retention.
type MaintenanceConfig struct {
	Interval time.Duration
	// KeepSnapshots is the number of snapshots retained per target.
	KeepSnapshots int
	// ExpireAfter marks pending and in-progress recommendations older than
	// this as expired. Zero disables expiry.
	ExpireAfter time.Duration
}

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	Targets int
	Pruned  int64
	Expired int64
	Elapsed time.Duration
}

// MaintenanceWorker periodically prunes old snapshots and expires stale
// recommendations.
type MaintenanceWorker struct {
	store  SnapshotStore
	cache  SnapshotInvalidator
	cfg    MaintenanceConfig
	stopCh chan struct{}
	now    func() time.Time
}

// NewMaintenanceWorker creates a worker. cache may be nil.
func NewMaintenanceWorker(store SnapshotStore, cache SnapshotInvalidator, cfg MaintenanceConfig) *MaintenanceWorker {
	if cache == nil {
		cache = &CacheService{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.KeepSnapshots < 1 {
		cfg.KeepSnapshots = 1
	}
	return &MaintenanceWorker{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
}

// Start runs one pass immediately, then every interval.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Interval).Int("keep", w.cfg.KeepSnapshots).Msg("maintenance-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("maintenance-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("maintenance-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *MaintenanceWorker) Stop() {
	close(w.stopCh)
}

func (w *MaintenanceWorker) tick(ctx context.Context) {
	report, err := w.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("maintenance-worker: run failed")
		return
	}
	log.Info().
		Int("targets", report.Targets).
		Int64("pruned", report.Pruned).
		Int64("expired", report.Expired).
		Dur("elapsed", report.Elapsed).
		Msg("maintenance-worker: tick complete")
}

// RunOnce prunes every target down to the configured number of snapshots and
// expires stale recommendations, then drops the cached latest snapshot of
// every target it changed. A failure on one target is logged and the run
// continues.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) (MaintenanceReport, error) {
	start := time.Now()
	var report MaintenanceReport

	targets, err := w.store.ListTargets(ctx)
	if err != nil {
		return report, err
	}
	report.Targets = len(targets)

	changed := make(map[model.TargetRef]struct{})
	for _, t := range targets {
		n, err := w.store.PruneSnapshots(ctx, t.TargetID, t.TargetType, w.cfg.KeepSnapshots)
		if err != nil {
			log.Warn().Err(err).Str("target_id", t.TargetID).Msg("maintenance-worker: prune error")
			continue
		}
		if n > 0 {
			changed[t] = struct{}{}
		}
		report.Pruned += n
	}
	metrics.SnapshotsPruned.Add(float64(report.Pruned))

	if w.cfg.ExpireAfter > 0 {
		n, err := w.store.ExpireStale(ctx, w.now().Add(-w.cfg.ExpireAfter))
		if err != nil {
			return report, err
		}
		report.Expired = n
		metrics.RecommendationsExpired.Add(float64(n))
		// Expiry is not tracked per target.
		if n > 0 {
			for _, t := range targets {
				changed[t] = struct{}{}
			}
		}
	}

	for t := range changed {
		if err := w.cache.InvalidateSnapshot(ctx, t.TargetType, t.TargetID); err != nil {
			log.Warn().Err(err).Str("target_id", t.TargetID).Msg("maintenance-worker: cache invalidate error")
		}
	}

	report.Elapsed = time.Since(start)
	metrics.MaintenanceDuration.Observe(report.Elapsed.Seconds())
	return report, nil
}
