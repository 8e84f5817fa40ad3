package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/ai"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/config"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/db"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/handler"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/repository"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/router"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/youtube"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "yt-analyst")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool  *pgxpool.Pool
		store service.SnapshotStore
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		store = repository.NewSnapshotRepo(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set, snapshots are kept in memory")
		store = repository.NewMemoryStore()
	}

	cache := service.NewCacheService(cfg.RedisURL, cfg.GenerationCacheTTL)

	gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generation client")
	}
	gen := service.NewCachingGenerator(gemini, cache)

	var (
		source  service.DataSource
		breaker *youtube.BreakerClient
	)
	if cfg.YouTubeAPIKey != "" {
		var opts []youtube.Option
		if cfg.YouTubeBaseURL != "" {
			opts = append(opts, youtube.WithBaseURL(cfg.YouTubeBaseURL))
		}
		breaker = youtube.NewBreakerClient(youtube.NewClient(cfg.YouTubeAPIKey, opts...), youtube.DefaultBreakerConfig())
		source = breaker
	} else {
		log.Warn().Msg("YOUTUBE_API_KEY not set, analysis requests must include their data")
	}

	// Services
	scoreSvc := service.NewScoreService(cache)
	recSvc := service.NewRecommendationService(store, gen, source, cache, service.RecommendationConfig{
		Model:             cfg.GeminiModel,
		Temperature:       cfg.AITemperature,
		MaxTokens:         cfg.AIMaxTokens,
		StrictPrompts:     cfg.StrictPrompts,
		ValidateResponses: cfg.AIValidate,
		MinResponseLength: cfg.AIMinResponseLen,
		MaxVideos:         cfg.YouTubeMaxVideos,
		Retrier:           service.NewRetrier(cfg.AIMaxRetries, cfg.AIRetryBaseDelay),
	})
	feedbackSvc := service.NewFeedbackService(store, cache)
	statsSvc := service.NewStatsService(store)

	// Handlers
	handlers := &router.Handlers{
		Score:          handler.NewScoreHandler(scoreSvc),
		Recommendation: handler.NewRecommendationHandler(recSvc, scoreSvc),
		Feedback:       handler.NewFeedbackHandler(feedbackSvc),
		Stats:          handler.NewStatsHandler(statsSvc),
		Health:         handler.NewHealthHandler(pool, cache.Client(), cfg.GeminiModel, breaker),
	}

	handler.InitMetrics(pool)

	// Background workers
	if pool != nil && cache.Enabled() {
		go service.NewSnapshotWorker(pool, cache).Start(ctx)
	}
	maintenance := service.NewMaintenanceWorker(store, cache, service.MaintenanceConfig{
		Interval:      cfg.MaintenanceInterval,
		KeepSnapshots: cfg.SnapshotRetention,
		ExpireAfter:   cfg.RecommendationExpiry,
	})
	go maintenance.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "YouTube Analyst API",
		ServerHeader: "yt-analyst",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})
	router.Setup(app, handlers, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		maintenance.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Str("model", cfg.GeminiModel).Msg("yt-analyst starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
