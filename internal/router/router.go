package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/handler"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Score          *handler.ScoreHandler
	Recommendation *handler.RecommendationHandler
	Feedback       *handler.FeedbackHandler
	Stats          *handler.StatsHandler
	Health         *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	generate := middleware.NewGenerationRateLimiter().Handler()
	scoring := middleware.NewScoringRateLimiter().Handler()
	reads := middleware.NewReadRateLimiter().Handler()
	feedback := middleware.NewFeedbackRateLimiter().Handler()

	api := app.Group("/api")

	// Scoring
	api.Post("/videos/score", scoring, h.Score.ScoreVideo)
	api.Post("/channels/score", scoring, h.Score.ScoreChannel)

	// Channel recommendations
	api.Post("/channels/:channelId/recommendations", generate, h.Recommendation.GenerateChannel)
	api.Get("/channels/:channelId/recommendations", reads, h.Recommendation.LatestChannel)
	api.Get("/channels/:channelId/history", reads, h.Stats.ChannelHistory)

	// Video recommendations
	api.Post("/videos/:videoId/recommendations", generate, h.Recommendation.GenerateVideo)
	api.Get("/videos/:videoId/recommendations", reads, h.Recommendation.LatestVideo)
	api.Post("/videos/:videoId/titles", generate, h.Recommendation.OptimizeTitles)
	api.Get("/videos/:videoId/history", reads, h.Stats.VideoHistory)

	// Recommendation lifecycle
	api.Get("/recommendations/:id", reads, h.Feedback.Get)
	api.Patch("/recommendations/:id/status", feedback, h.Feedback.UpdateStatus)
	api.Post("/recommendations/:id/feedback", feedback, h.Feedback.Submit)

	api.Get("/stats", reads, h.Stats.GetStats)
}
