package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/repository"
)

func newTestRecommendationService(gen Generator, cfg RecommendationConfig) (*RecommendationService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	if cfg.Model == "" {
		cfg.Model = "test-model"
	}
	cfg.Retrier = NewRetrier(2, time.Millisecond)
	return NewRecommendationService(store, gen, nil, nil, cfg), store
}

func testChannel() model.ChannelRecord {
	return model.ChannelRecord{ChannelID: "UC123", Title: "Workshop Notes", SubscriberCount: 1200, VideoCount: 40}
}

func testVideos() []model.VideoRecord {
	return []model.VideoRecord{
		{VideoID: "v1", ChannelID: "UC123", Title: "Building a Bench", Metrics: exampleMetrics()},
		{VideoID: "v2", ChannelID: "UC123", Title: "Sharpening Chisels", Metrics: model.VideoMetrics{CTR: 4, AvgPercentageViewed: 35, Views: 2000}},
	}
}

func TestGenerateChannelRecommendations_SavesSnapshot(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, store := newTestRecommendationService(gen, RecommendationConfig{Temperature: 0.7, MaxTokens: 2048})
	ctx := context.Background()

	snap, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos())
	if err != nil {
		t.Fatalf("GenerateChannelRecommendations: %v", err)
	}
	if snap.Score == nil {
		t.Fatal("channel snapshot has no score")
	}
	if len(snap.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(snap.Recommendations))
	}
	rec := snap.Recommendations[0]
	if rec.TargetID != "UC123" || rec.TargetType != model.TargetChannel {
		t.Errorf("target = %s/%s", rec.TargetType, rec.TargetID)
	}
	if rec.GeneratedBy != "test-model" {
		t.Errorf("GeneratedBy = %q", rec.GeneratedBy)
	}
	if !rec.CreatedAt.Equal(snap.GeneratedAt) {
		t.Errorf("CreatedAt %v != GeneratedAt %v", rec.CreatedAt, snap.GeneratedAt)
	}

	latest, err := store.GetLatestSnapshot(ctx, "UC123", model.TargetChannel)
	if err != nil || latest == nil {
		t.Fatalf("GetLatestSnapshot = %v, %v", latest, err)
	}
	if latest.Score == nil || latest.Score.Overall != snap.Score.Overall {
		t.Errorf("stored score = %+v, want %+v", latest.Score, snap.Score)
	}

	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Workshop Notes") {
		t.Errorf("prompt does not mention the channel: %q", gen.prompts)
	}
	opts := gen.opts[0]
	if !opts.JSON || opts.SystemPrompt == "" || opts.Temperature != 0.7 || opts.MaxTokens != 2048 {
		t.Errorf("options = %+v", opts)
	}
}

func TestGenerateChannelRecommendations_InlineSystemPrompt(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{
		SystemPrompt:       "You are a growth consultant.",
		InlineSystemPrompt: true,
	})

	if _, err := svc.GenerateChannelRecommendations(context.Background(), testChannel(), testVideos()); err != nil {
		t.Fatalf("GenerateChannelRecommendations: %v", err)
	}
	if gen.opts[0].SystemPrompt != "" {
		t.Errorf("system prompt sent separately: %q", gen.opts[0].SystemPrompt)
	}
	if !strings.HasPrefix(gen.prompts[0], "You are a growth consultant.") {
		t.Errorf("prompt does not start with the system prompt: %.60q", gen.prompts[0])
	}
}

func TestGenerateChannelRecommendations_NoVideos(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{})

	_, err := svc.GenerateChannelRecommendations(context.Background(), testChannel(), nil)
	if !errors.Is(err, ErrNoVideos) {
		t.Fatalf("err = %v, want ErrNoVideos", err)
	}
	if gen.Calls() != 0 {
		t.Errorf("generator called %d times", gen.Calls())
	}
}

func TestGenerateChannelRecommendations_GenerationFailureSavesNothing(t *testing.T) {
	gen := &fakeGenerator{failures: 10}
	svc, store := newTestRecommendationService(gen, RecommendationConfig{})
	ctx := context.Background()

	_, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if gen.Calls() != 2 {
		t.Errorf("calls = %d, want 2", gen.Calls())
	}
	if snap, _ := store.GetLatestSnapshot(ctx, "UC123", model.TargetChannel); snap != nil {
		t.Errorf("snapshot saved after failure: %+v", snap)
	}
}

func TestGenerateChannelRecommendations_QualityGate(t *testing.T) {
	gen := &fakeGenerator{content: "too short"}
	svc, store := newTestRecommendationService(gen, RecommendationConfig{ValidateResponses: true})
	ctx := context.Background()

	_, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos())
	if !errors.Is(err, ErrRejectedResponse) {
		t.Fatalf("err = %v, want ErrRejectedResponse", err)
	}
	if snap, _ := store.GetLatestSnapshot(ctx, "UC123", model.TargetChannel); snap != nil {
		t.Error("snapshot saved for a rejected response")
	}
}

func TestGenerateChannelRecommendations_UnstructuredOutputFallsBack(t *testing.T) {
	gen := &fakeGenerator{content: "Your thumbnails need stronger contrast and your intros run long."}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{})

	snap, err := svc.GenerateChannelRecommendations(context.Background(), testChannel(), testVideos())
	if err != nil {
		t.Fatalf("GenerateChannelRecommendations: %v", err)
	}
	if len(snap.Recommendations) != 1 || snap.Recommendations[0].Title != "Review AI analysis" {
		t.Errorf("recommendations = %+v", snap.Recommendations)
	}
}

func TestGenerateVideoRecommendations_NoScorePersisted(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, store := newTestRecommendationService(gen, RecommendationConfig{})
	ctx := context.Background()

	video := testVideos()[0]
	score := NewScoringService().ScoreVideo(video.Metrics)
	snap, err := svc.GenerateVideoRecommendations(ctx, video, score)
	if err != nil {
		t.Fatalf("GenerateVideoRecommendations: %v", err)
	}
	if snap.Score != nil {
		t.Errorf("video snapshot has score %+v", snap.Score)
	}

	latest, err := store.GetLatestSnapshot(ctx, "v1", model.TargetVideo)
	if err != nil || latest == nil {
		t.Fatalf("GetLatestSnapshot = %v, %v", latest, err)
	}
	if latest.Score != nil {
		t.Error("stored video snapshot has a score")
	}
	if latest.Recommendations[0].TargetType != model.TargetVideo {
		t.Errorf("TargetType = %s", latest.Recommendations[0].TargetType)
	}
}

func TestLatestSnapshot_ReplacedByNewerGeneration(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{})
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	if _, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos()); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(time.Hour)
	gen.content = "Plain text advice about pacing and thumbnails."
	if _, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos()); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.LatestSnapshot(ctx, "UC123", model.TargetChannel)
	if err != nil || snap == nil {
		t.Fatalf("LatestSnapshot = %v, %v", snap, err)
	}
	if !snap.GeneratedAt.Equal(clock) {
		t.Errorf("GeneratedAt = %v, want %v", snap.GeneratedAt, clock)
	}
	if len(snap.Recommendations) != 1 || snap.Recommendations[0].Title != "Review AI analysis" {
		t.Errorf("latest snapshot mixes generations: %+v", snap.Recommendations)
	}
}

func TestGenerateChannelRecommendations_EmptyOutputKeepsLatest(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, store := newTestRecommendationService(gen, RecommendationConfig{})
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	if _, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos()); err != nil {
		t.Fatal(err)
	}
	good := clock

	clock = clock.Add(time.Hour)
	gen.content = ""
	if _, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos()); !errors.Is(err, ErrRejectedResponse) {
		t.Fatalf("err = %v, want ErrRejectedResponse", err)
	}
	snap, err := store.GetLatestSnapshot(ctx, "UC123", model.TargetChannel)
	if err != nil || snap == nil {
		t.Fatalf("GetLatestSnapshot = %v, %v", snap, err)
	}
	if !snap.GeneratedAt.Equal(good) || len(snap.Recommendations) != 1 {
		t.Errorf("empty output replaced the latest snapshot: at %v with %d recommendations", snap.GeneratedAt, len(snap.Recommendations))
	}

	clock = clock.Add(time.Hour)
	gen.content = "   \n"
	got, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos())
	if err != nil {
		t.Fatalf("whitespace output: %v", err)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Title != "Review AI analysis" {
		t.Errorf("whitespace output = %+v, want the fallback recommendation", got.Recommendations)
	}
}

func TestLatestSnapshot_None(t *testing.T) {
	svc, _ := newTestRecommendationService(&fakeGenerator{}, RecommendationConfig{})
	snap, err := svc.LatestSnapshot(context.Background(), "UCnone", model.TargetChannel)
	if err != nil || snap != nil {
		t.Errorf("LatestSnapshot = %v, %v, want nil, nil", snap, err)
	}
}

func TestOptimizeTitle(t *testing.T) {
	gen := &fakeGenerator{content: `{"titles": ["I Built a Bench in 3 Hours", "The Only Bench Plan You Need"]}`}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{MaxTokens: 8192})

	titles, err := svc.OptimizeTitle(context.Background(), testVideos()[0])
	if err != nil {
		t.Fatalf("OptimizeTitle: %v", err)
	}
	if len(titles) != 2 || titles[0] != "I Built a Bench in 3 Hours" {
		t.Errorf("titles = %q", titles)
	}
	if gen.opts[0].MaxTokens != titleMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", gen.opts[0].MaxTokens, titleMaxTokens)
	}
}

func TestRegenerationSkipsGenerationCache(t *testing.T) {
	gen := &fakeGenerator{content: wellFormedOutput}
	svc, _ := newTestRecommendationService(gen, RecommendationConfig{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.GenerateChannelRecommendations(ctx, testChannel(), testVideos()); err != nil {
			t.Fatalf("GenerateChannelRecommendations: %v", err)
		}
	}
	if _, err := svc.OptimizeTitle(ctx, testVideos()[0]); err != nil {
		t.Fatalf("OptimizeTitle: %v", err)
	}

	if len(gen.opts) != 3 {
		t.Fatalf("calls = %d, want 3", len(gen.opts))
	}
	for i, opts := range gen.opts[:2] {
		if !opts.Fresh {
			t.Errorf("regeneration %d reused the generation cache", i)
		}
	}
	if gen.opts[2].Fresh {
		t.Error("title optimization should be served from the generation cache")
	}
}

func TestLoad_NoDataSource(t *testing.T) {
	svc, _ := newTestRecommendationService(&fakeGenerator{}, RecommendationConfig{})
	if _, _, err := svc.LoadChannel(context.Background(), "UC123"); !errors.Is(err, ErrNoDataSource) {
		t.Errorf("LoadChannel err = %v", err)
	}
	if _, err := svc.LoadVideo(context.Background(), "v1"); !errors.Is(err, ErrNoDataSource) {
		t.Errorf("LoadVideo err = %v", err)
	}
}

type stubSource struct {
	channel *model.ChannelRecord
	videos  []model.VideoRecord
	limit   int
}

func (s *stubSource) GetChannelData(_ context.Context, _ string) (*model.ChannelRecord, error) {
	return s.channel, nil
}

func (s *stubSource) GetVideosDataBatch(_ context.Context, ids []string) ([]model.VideoRecord, error) {
	var out []model.VideoRecord
	for _, v := range s.videos {
		for _, id := range ids {
			if v.VideoID == id {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (s *stubSource) ListRecentVideoIDs(_ context.Context, _ *model.ChannelRecord, limit int) ([]string, error) {
	s.limit = limit
	ids := make([]string, 0, len(s.videos))
	for _, v := range s.videos {
		ids = append(ids, v.VideoID)
	}
	return ids, nil
}

func TestLoadChannel_UsesDataSource(t *testing.T) {
	ch := testChannel()
	src := &stubSource{channel: &ch, videos: testVideos()}
	svc := NewRecommendationService(repository.NewMemoryStore(), &fakeGenerator{}, src, nil, RecommendationConfig{MaxVideos: 10})

	got, videos, err := svc.LoadChannel(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("LoadChannel: %v", err)
	}
	if got.ChannelID != "UC123" || len(videos) != 2 {
		t.Errorf("LoadChannel = %+v, %d videos", got, len(videos))
	}
	if src.limit != 10 {
		t.Errorf("limit = %d, want 10", src.limit)
	}

	if _, err := svc.LoadVideo(context.Background(), "missing"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("LoadVideo(missing) err = %v", err)
	}
}
