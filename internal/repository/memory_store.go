package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

type memSnapshot struct {
	at    time.Time
	score *model.AlgorithmScore
	ids   []uuid.UUID
}

// MemoryStore keeps snapshots in process memory. It is used by the CLI when
// no database is configured, and by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[model.TargetRef][]*memSnapshot
	recs      map[uuid.UUID]*model.Recommendation
	feedback  []model.Feedback
	nextID    int64
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[model.TargetRef][]*memSnapshot),
		recs:      make(map[uuid.UUID]*model.Recommendation),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, targetID string, targetType model.TargetType, score *model.AlgorithmScore, recs []model.Recommendation, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := model.TargetRef{TargetID: targetID, TargetType: targetType}
	for _, snap := range s.snapshots[ref] {
		if snap.at.Equal(at) {
			return fmt.Errorf("snapshot for %s:%s at %s already exists", targetType, targetID, at.Format(time.RFC3339Nano))
		}
	}
	for _, rec := range recs {
		if _, ok := s.recs[rec.ID]; ok {
			return fmt.Errorf("duplicate recommendation id %s", rec.ID)
		}
	}

	snap := &memSnapshot{at: at}
	if score != nil {
		c := cloneScore(*score)
		snap.score = &c
	}
	for _, rec := range recs {
		c := cloneRecommendation(rec)
		c.TargetID = targetID
		c.TargetType = targetType
		c.CreatedAt = at
		s.recs[c.ID] = &c
		snap.ids = append(snap.ids, c.ID)
	}
	s.snapshots[ref] = append(s.snapshots[ref], snap)
	return nil
}

func (s *MemoryStore) GetLatestSnapshot(_ context.Context, targetID string, targetType model.TargetType) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[model.TargetRef{TargetID: targetID, TargetType: targetType}]
	ts := make([]time.Time, len(snaps))
	for i, snap := range snaps {
		ts[i] = snap.at
	}
	latest, ok := LatestTimestamp(ts)
	if !ok {
		return nil, nil
	}

	for _, snap := range snaps {
		if !snap.at.Equal(latest) {
			continue
		}
		out := &model.Snapshot{
			TargetID:        targetID,
			TargetType:      targetType,
			GeneratedAt:     snap.at,
			Recommendations: make([]model.Recommendation, 0, len(snap.ids)),
		}
		if snap.score != nil {
			c := cloneScore(*snap.score)
			out.Score = &c
		}
		for _, id := range snap.ids {
			out.Recommendations = append(out.Recommendations, cloneRecommendation(*s.recs[id]))
		}
		return out, nil
	}
	return nil, nil
}

func (s *MemoryStore) GetRecommendation(_ context.Context, id uuid.UUID) (*model.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneRecommendation(*rec)
	return &c, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.Status, notes string) (*model.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := cloneRecommendation(*rec)
	if err := ApplyStatus(&updated, status, notes, s.now()); err != nil {
		return nil, err
	}
	*rec = updated
	c := cloneRecommendation(updated)
	return &c, nil
}

func (s *MemoryStore) AddFeedback(_ context.Context, id uuid.UUID, req model.FeedbackRequest) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}

	s.nextID++
	fb := model.Feedback{
		ID:               s.nextID,
		RecommendationID: id,
		TargetID:         rec.TargetID,
		TargetType:       rec.TargetType,
		Rating:           cloneInt(req.Rating),
		Text:             req.Text,
		Helpful:          req.Helpful,
		CreatedAt:        s.now(),
	}
	s.feedback = append(s.feedback, fb)
	if req.Rating != nil {
		rec.UserRating = cloneInt(req.Rating)
	}
	return &fb, nil
}

func (s *MemoryStore) History(_ context.Context, targetID string, targetType model.TargetType, since time.Time) ([]model.SnapshotSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.SnapshotSummary{}
	for _, snap := range s.snapshots[model.TargetRef{TargetID: targetID, TargetType: targetType}] {
		if snap.at.Before(since) {
			continue
		}
		out = append(out, SummarizeSnapshot(snap.at, snap.score, len(snap.ids)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (s *MemoryStore) ListTargets(_ context.Context) ([]model.TargetRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TargetRef, 0, len(s.snapshots))
	for ref, snaps := range s.snapshots {
		if len(snaps) > 0 {
			out = append(out, ref)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TargetType != out[j].TargetType {
			return out[i].TargetType < out[j].TargetType
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out, nil
}

func (s *MemoryStore) PruneSnapshots(_ context.Context, targetID string, targetType model.TargetType, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := model.TargetRef{TargetID: targetID, TargetType: targetType}
	snaps := s.snapshots[ref]
	ts := make([]time.Time, len(snaps))
	for i, snap := range snaps {
		ts[i] = snap.at
	}
	stale := TimestampsToPrune(ts, keep)
	if len(stale) == 0 {
		return 0, nil
	}
	drop := make(map[int64]struct{}, len(stale))
	for _, t := range stale {
		drop[t.UnixNano()] = struct{}{}
	}

	var removed int64
	kept := snaps[:0]
	for _, snap := range snaps {
		if _, ok := drop[snap.at.UnixNano()]; !ok {
			kept = append(kept, snap)
			continue
		}
		for _, id := range snap.ids {
			delete(s.recs, id)
			removed++
		}
	}
	s.snapshots[ref] = kept

	fb := s.feedback[:0]
	for _, f := range s.feedback {
		if _, ok := s.recs[f.RecommendationID]; ok {
			fb = append(fb, f)
		}
	}
	s.feedback = fb
	return removed, nil
}

func (s *MemoryStore) ExpireStale(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, rec := range s.recs {
		if rec.Status != model.StatusPending && rec.Status != model.StatusInProgress {
			continue
		}
		if rec.CreatedAt.Before(olderThan) {
			rec.Status = model.StatusExpired
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Stats(_ context.Context) (*model.StatsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.StatsResponse{
		ByStatus:   map[string]int64{},
		ByCategory: map[string]int64{},
	}
	for _, snaps := range s.snapshots {
		stats.TotalSnapshots += int64(len(snaps))
	}
	for _, rec := range s.recs {
		stats.TotalRecommendations++
		stats.ByStatus[string(rec.Status)]++
		stats.ByCategory[string(rec.Category)]++
	}

	var ratingSum, rated int
	for _, f := range s.feedback {
		stats.FeedbackCount++
		if f.Rating != nil {
			ratingSum += *f.Rating
			rated++
		}
	}
	if rated > 0 {
		avg := float64(ratingSum) / float64(rated)
		stats.AverageRating = &avg
	}
	stats.ImplementationRate = ImplementationRate(stats.ByStatus[string(model.StatusImplemented)], stats.TotalRecommendations)
	return stats, nil
}

func cloneRecommendation(r model.Recommendation) model.Recommendation {
	if r.ActionItems != nil {
		items := make([]model.ActionItem, len(r.ActionItems))
		copy(items, r.ActionItems)
		r.ActionItems = items
	}
	if r.ImplementedAt != nil {
		t := *r.ImplementedAt
		r.ImplementedAt = &t
	}
	r.UserRating = cloneInt(r.UserRating)
	return r
}

func cloneScore(s model.AlgorithmScore) model.AlgorithmScore {
	s.Strengths = cloneStrings(s.Strengths)
	s.Weaknesses = cloneStrings(s.Weaknesses)
	s.Opportunities = cloneStrings(s.Opportunities)
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
