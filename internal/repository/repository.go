package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// ErrNotFound is returned when a recommendation does not exist.
var ErrNotFound = errors.New("not found")

// LatestTimestamp returns the most recent timestamp in ts.
func LatestTimestamp(ts []time.Time) (time.Time, bool) {
	if len(ts) == 0 {
		return time.Time{}, false
	}
	latest := ts[0]
	for _, t := range ts[1:] {
		if t.After(latest) {
			latest = t
		}
	}
	return latest, true
}

// TimestampsToPrune returns the distinct timestamps in ts that fall outside
// the keep most recent ones, newest first. keep < 1 is treated as 1 so the
// latest snapshot always survives.
func TimestampsToPrune(ts []time.Time, keep int) []time.Time {
	if keep < 1 {
		keep = 1
	}
	distinct := DistinctTimestamps(ts)
	if len(distinct) <= keep {
		return nil
	}
	return distinct[keep:]
}

// DistinctTimestamps returns the unique timestamps in ts, newest first.
func DistinctTimestamps(ts []time.Time) []time.Time {
	seen := make(map[int64]struct{}, len(ts))
	out := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		k := t.UnixNano()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}

// ApplyStatus moves rec to status. Re-applying the current status only
// updates notes. ImplementedAt is set when entering implemented.
func ApplyStatus(rec *model.Recommendation, to model.Status, notes string, now time.Time) error {
	if !model.CanTransition(rec.Status, to) {
		return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, rec.Status, to)
	}
	if notes != "" {
		rec.Notes = notes
	}
	if rec.Status == to {
		return nil
	}
	rec.Status = to
	if to == model.StatusImplemented {
		at := now
		rec.ImplementedAt = &at
	}
	return nil
}

// SummarizeSnapshot builds a history entry.
func SummarizeSnapshot(at time.Time, score *model.AlgorithmScore, recommendations int) model.SnapshotSummary {
	s := model.SnapshotSummary{GeneratedAt: at, RecommendationCount: recommendations}
	if score != nil {
		overall := score.Overall
		s.Overall = &overall
		s.Grade = score.Grade
	}
	return s
}

// ImplementationRate is the share of recommendations marked implemented.
func ImplementationRate(implemented, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(implemented) / float64(total)
}
