package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// SnapshotChannel is the NOTIFY channel announcing saved, pruned or expired
// snapshots. The payload is "<targetType>:<targetId>".
const SnapshotChannel = "snapshot_changes"

const recColumns = `r.id::text, r.target_id, r.target_type, r.category, r.priority, r.title,
	r.description, r.action_items, r.expected_impact, r.confidence, r.generated_by,
	r.reasoning, r.status, r.created_at, r.implemented_at, r.user_rating, r.notes`

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// SaveSnapshot writes the snapshot header and every recommendation with the
// same created_at in one transaction, then notifies listeners on commit.
// Recommendations keep their slice order.
func (r *SnapshotRepo) SaveSnapshot(ctx context.Context, targetID string, targetType model.TargetType, score *model.AlgorithmScore, recs []model.Recommendation, at time.Time) error {
	var scoreJSON []byte
	if score != nil {
		b, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("encode score: %w", err)
		}
		scoreJSON = b
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO snapshots (target_type, target_id, created_at, score)
		VALUES ($1, $2, $3, $4)`,
		string(targetType), targetID, at, scoreJSON)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rec := range recs {
		items, err := json.Marshal(rec.ActionItems)
		if err != nil {
			return fmt.Errorf("encode action items: %w", err)
		}
		impact, err := json.Marshal(rec.ExpectedImpact)
		if err != nil {
			return fmt.Errorf("encode impact: %w", err)
		}
		batch.Queue(`
			INSERT INTO recommendations (
				id, target_type, target_id, created_at, position, category, priority, title,
				description, action_items, expected_impact, confidence, generated_by,
				reasoning, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			rec.ID.String(), string(targetType), targetID, at, i, string(rec.Category), string(rec.Priority), rec.Title,
			rec.Description, items, impact, rec.Confidence, rec.GeneratedBy,
			rec.Reasoning, string(rec.Status), rec.Notes)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert recommendations: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, SnapshotChannel, string(targetType)+":"+targetID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetLatestSnapshot returns the snapshot with the greatest created_at for the
// target, or nil when none exists. Header and rows are read in one statement.
func (r *SnapshotRepo) GetLatestSnapshot(ctx context.Context, targetID string, targetType model.TargetType) (*model.Snapshot, error) {
	rows, err := r.pool.Query(ctx, `
		WITH latest AS (
			SELECT target_type, target_id, created_at, score
			FROM snapshots
			WHERE target_type = $1 AND target_id = $2
			ORDER BY created_at DESC
			LIMIT 1
		)
		SELECT l.created_at, l.score, `+recColumns+`
		FROM latest l
		LEFT JOIN recommendations r
			ON r.target_type = l.target_type AND r.target_id = l.target_id AND r.created_at = l.created_at
		ORDER BY r.position`,
		string(targetType), targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snap *model.Snapshot
	for rows.Next() {
		var (
			at        time.Time
			scoreJSON []byte
			row       recRow
		)
		if err := rows.Scan(append([]any{&at, &scoreJSON}, row.dest()...)...); err != nil {
			return nil, err
		}

		if snap == nil {
			snap = &model.Snapshot{
				TargetID:        targetID,
				TargetType:      targetType,
				GeneratedAt:     at,
				Recommendations: []model.Recommendation{},
			}
			if len(scoreJSON) > 0 {
				var score model.AlgorithmScore
				if err := json.Unmarshal(scoreJSON, &score); err != nil {
					return nil, fmt.Errorf("decode score: %w", err)
				}
				snap.Score = &score
			}
		}

		if row.id == nil {
			continue
		}
		rec, err := row.toModel()
		if err != nil {
			return nil, err
		}
		snap.Recommendations = append(snap.Recommendations, rec)
	}
	return snap, rows.Err()
}

// GetRecommendation returns a single recommendation.
func (r *SnapshotRepo) GetRecommendation(ctx context.Context, id uuid.UUID) (*model.Recommendation, error) {
	var row recRow
	err := r.pool.QueryRow(ctx, `SELECT `+recColumns+` FROM recommendations r WHERE r.id = $1`, id.String()).Scan(row.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus applies a status transition under a row lock.
func (r *SnapshotRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status, notes string) (*model.Recommendation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var row recRow
	err = tx.QueryRow(ctx, `SELECT `+recColumns+` FROM recommendations r WHERE r.id = $1 FOR UPDATE`, id.String()).Scan(row.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}

	if err := ApplyStatus(&rec, status, notes, time.Now().UTC()); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE recommendations
		SET status = $2, notes = $3, implemented_at = $4, updated_at = NOW()
		WHERE id = $1`,
		id.String(), string(rec.Status), rec.Notes, rec.ImplementedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AddFeedback stores feedback and, when a rating is given, records it on the
// recommendation.
func (r *SnapshotRepo) AddFeedback(ctx context.Context, id uuid.UUID, req model.FeedbackRequest) (*model.Feedback, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	fb := &model.Feedback{RecommendationID: id, Rating: req.Rating, Text: req.Text, Helpful: req.Helpful}

	var targetType string
	err = tx.QueryRow(ctx, `SELECT target_id, target_type FROM recommendations WHERE id = $1 FOR UPDATE`, id.String()).
		Scan(&fb.TargetID, &targetType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	fb.TargetType = model.TargetType(targetType)

	err = tx.QueryRow(ctx, `
		INSERT INTO recommendation_feedback (recommendation_id, rating, text, helpful)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		id.String(), req.Rating, req.Text, req.Helpful).Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		_, err = tx.Exec(ctx, `UPDATE recommendations SET user_rating = $2, updated_at = NOW() WHERE id = $1`, id.String(), *req.Rating)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return fb, nil
}

// History lists snapshot summaries for a target created at or after since,
// newest first.
func (r *SnapshotRepo) History(ctx context.Context, targetID string, targetType model.TargetType, since time.Time) ([]model.SnapshotSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.created_at, s.score, COUNT(r.id)
		FROM snapshots s
		LEFT JOIN recommendations r
			ON r.target_type = s.target_type AND r.target_id = s.target_id AND r.created_at = s.created_at
		WHERE s.target_type = $1 AND s.target_id = $2 AND s.created_at >= $3
		GROUP BY s.created_at, s.score
		ORDER BY s.created_at DESC`,
		string(targetType), targetID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SnapshotSummary{}
	for rows.Next() {
		var (
			at        time.Time
			scoreJSON []byte
			count     int
		)
		if err := rows.Scan(&at, &scoreJSON, &count); err != nil {
			return nil, err
		}
		var score *model.AlgorithmScore
		if len(scoreJSON) > 0 {
			score = &model.AlgorithmScore{}
			if err := json.Unmarshal(scoreJSON, score); err != nil {
				return nil, fmt.Errorf("decode score: %w", err)
			}
		}
		out = append(out, SummarizeSnapshot(at, score, count))
	}
	return out, rows.Err()
}

// ListTargets returns every target that has at least one snapshot.
func (r *SnapshotRepo) ListTargets(ctx context.Context) ([]model.TargetRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT target_type, target_id FROM snapshots ORDER BY target_type, target_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TargetRef
	for rows.Next() {
		var t, id string
		if err := rows.Scan(&t, &id); err != nil {
			return nil, err
		}
		out = append(out, model.TargetRef{TargetID: id, TargetType: model.TargetType(t)})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps the keep most recent snapshots of a target and deletes
// the rest. It returns the number of recommendation rows removed.
func (r *SnapshotRepo) PruneSnapshots(ctx context.Context, targetID string, targetType model.TargetType, keep int) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT created_at FROM snapshots
		WHERE target_type = $1 AND target_id = $2
		FOR UPDATE`,
		string(targetType), targetID)
	if err != nil {
		return 0, err
	}
	timestamps, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return 0, err
	}

	stale := TimestampsToPrune(timestamps, keep)
	if len(stale) == 0 {
		return 0, nil
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM recommendations
		WHERE target_type = $1 AND target_id = $2 AND created_at = ANY($3)`,
		string(targetType), targetID, stale)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM snapshots
		WHERE target_type = $1 AND target_id = $2 AND created_at = ANY($3)`,
		string(targetType), targetID, stale)
	if err != nil {
		return 0, err
	}
	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, SnapshotChannel, string(targetType)+":"+targetID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExpireStale marks pending and in-progress recommendations created before
// olderThan as expired and notifies every affected target.
func (r *SnapshotRepo) ExpireStale(ctx context.Context, olderThan time.Time) (int64, error) {
	var expired, targets int64
	err := r.pool.QueryRow(ctx, `
		WITH expired AS (
			UPDATE recommendations
			SET status = 'expired', updated_at = NOW()
			WHERE status IN ('pending', 'in_progress') AND created_at < $1
			RETURNING target_type, target_id
		), notified AS (
			SELECT pg_notify($2, target_type || ':' || target_id)
			FROM (SELECT DISTINCT target_type, target_id FROM expired) t
		)
		SELECT (SELECT count(*) FROM expired), (SELECT count(*) FROM notified)`,
		olderThan, SnapshotChannel).Scan(&expired, &targets)
	if err != nil {
		return 0, err
	}
	log.Debug().Int64("expired", expired).Int64("targets", targets).Msg("expired stale recommendations")
	return expired, nil
}

// Stats aggregates recommendation counts and feedback.
func (r *SnapshotRepo) Stats(ctx context.Context) (*model.StatsResponse, error) {
	stats := &model.StatsResponse{
		ByStatus:   map[string]int64{},
		ByCategory: map[string]int64{},
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&stats.TotalSnapshots); err != nil {
		return nil, err
	}

	if err := r.countBy(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "category", stats.ByCategory); err != nil {
		return nil, err
	}
	for _, n := range stats.ByStatus {
		stats.TotalRecommendations += n
	}

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), AVG(rating) FROM recommendation_feedback`).
		Scan(&stats.FeedbackCount, &stats.AverageRating)
	if err != nil {
		return nil, err
	}

	stats.ImplementationRate = ImplementationRate(stats.ByStatus[string(model.StatusImplemented)], stats.TotalRecommendations)
	return stats, nil
}

func (r *SnapshotRepo) countBy(ctx context.Context, column string, into map[string]int64) error {
	// column is one of a fixed set of identifiers, never user input.
	rows, err := r.pool.Query(ctx, `SELECT `+column+`, COUNT(*) FROM recommendations GROUP BY `+column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// recRow scans recommendation columns. Every field is nullable so the same
// scanner serves LEFT JOIN reads.
type recRow struct {
	id, targetID, targetType, category, priority, title *string
	description, generatedBy, reasoning, status, notes  *string
	actionItems, impact                                 []byte
	confidence                                          *float64
	createdAt, implementedAt                            *time.Time
	userRating                                          *int
}

func (r *recRow) dest() []any {
	return []any{
		&r.id, &r.targetID, &r.targetType, &r.category, &r.priority, &r.title,
		&r.description, &r.actionItems, &r.impact, &r.confidence, &r.generatedBy,
		&r.reasoning, &r.status, &r.createdAt, &r.implementedAt, &r.userRating, &r.notes,
	}
}

func (r *recRow) toModel() (model.Recommendation, error) {
	id, err := uuid.Parse(deref(r.id))
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("parse recommendation id: %w", err)
	}
	rec := model.Recommendation{
		ID:            id,
		TargetID:      deref(r.targetID),
		TargetType:    model.TargetType(deref(r.targetType)),
		Category:      model.Category(deref(r.category)),
		Priority:      model.Priority(deref(r.priority)),
		Title:         deref(r.title),
		Description:   deref(r.description),
		ActionItems:   []model.ActionItem{},
		GeneratedBy:   deref(r.generatedBy),
		Reasoning:     deref(r.reasoning),
		Status:        model.Status(deref(r.status)),
		ImplementedAt: r.implementedAt,
		UserRating:    r.userRating,
		Notes:         deref(r.notes),
	}
	if r.confidence != nil {
		rec.Confidence = *r.confidence
	}
	if r.createdAt != nil {
		rec.CreatedAt = *r.createdAt
	}
	if len(r.actionItems) > 0 {
		if err := json.Unmarshal(r.actionItems, &rec.ActionItems); err != nil {
			return model.Recommendation{}, fmt.Errorf("decode action items: %w", err)
		}
	}
	if len(r.impact) > 0 {
		if err := json.Unmarshal(r.impact, &rec.ExpectedImpact); err != nil {
			return model.Recommendation{}, fmt.Errorf("decode impact: %w", err)
		}
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
