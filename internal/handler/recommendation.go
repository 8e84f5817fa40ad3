package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

type RecommendationHandler struct {
	svc    *service.RecommendationService
	scores *service.ScoreService
}

func NewRecommendationHandler(svc *service.RecommendationService, scores *service.ScoreService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc, scores: scores}
}

// GenerateChannel handles POST /api/channels/:channelId/recommendations.
// Videos in the body are analyzed as given; otherwise the channel is fetched
// from YouTube.
func (h *RecommendationHandler) GenerateChannel(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	var req model.ChannelAnalysisRequest
	if err := bindOptional(c, &req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if msg := middleware.ValidateStruct(req); msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	channel := model.ChannelRecord{ChannelID: channelID}
	if req.Channel != nil {
		channel = *req.Channel
		channel.ChannelID = channelID
	}
	videos := req.Videos

	if len(videos) == 0 {
		fetched, fetchedVideos, err := h.svc.LoadChannel(c.Context(), channelID)
		if err != nil {
			return serviceError(c, err, "Failed to fetch channel data")
		}
		channel, videos = *fetched, fetchedVideos
	}

	snap, err := h.svc.GenerateChannelRecommendations(c.Context(), channel, videos)
	if err != nil {
		return serviceError(c, err, "Failed to generate recommendations")
	}

	return c.Status(fiber.StatusCreated).JSON(model.ChannelAnalysisResponse{
		ChannelID:       channelID,
		Score:           *snap.Score,
		Recommendations: snap.Recommendations,
		GeneratedAt:     snap.GeneratedAt,
	})
}

// GenerateVideo handles POST /api/videos/:videoId/recommendations
func (h *RecommendationHandler) GenerateVideo(c fiber.Ctx) error {
	video, err := h.resolveVideo(c)
	if err != nil {
		return err
	}
	if video == nil {
		return nil
	}

	score := h.scores.ScoreVideo(c.Context(), video.Metrics)
	snap, err := h.svc.GenerateVideoRecommendations(c.Context(), *video, score)
	if err != nil {
		return serviceError(c, err, "Failed to generate recommendations")
	}

	return c.Status(fiber.StatusCreated).JSON(model.VideoAnalysisResponse{
		VideoID:         video.VideoID,
		Score:           score,
		Recommendations: snap.Recommendations,
		GeneratedAt:     snap.GeneratedAt,
	})
}

// OptimizeTitles handles POST /api/videos/:videoId/titles
func (h *RecommendationHandler) OptimizeTitles(c fiber.Ctx) error {
	video, err := h.resolveVideo(c)
	if err != nil {
		return err
	}
	if video == nil {
		return nil
	}

	titles, err := h.svc.OptimizeTitle(c.Context(), *video)
	if err != nil {
		return serviceError(c, err, "Failed to generate titles")
	}

	return c.JSON(model.TitleSuggestionsResponse{
		VideoID:      video.VideoID,
		CurrentTitle: video.Title,
		Titles:       titles,
	})
}

// LatestChannel handles GET /api/channels/:channelId/recommendations
func (h *RecommendationHandler) LatestChannel(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	return h.latest(c, channelID, model.TargetChannel)
}

// LatestVideo handles GET /api/videos/:videoId/recommendations
func (h *RecommendationHandler) LatestVideo(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	return h.latest(c, videoID, model.TargetVideo)
}

func (h *RecommendationHandler) latest(c fiber.Ctx, targetID string, targetType model.TargetType) error {
	snap, err := h.svc.LatestSnapshot(c.Context(), targetID, targetType)
	if err != nil {
		return serviceError(c, err, "Failed to fetch recommendations")
	}
	if snap == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No recommendations generated yet")
	}
	return c.JSON(snap)
}

// resolveVideo returns the video from the request body or fetches it. When
// it has already written an error response it returns nil, nil.
func (h *RecommendationHandler) resolveVideo(c fiber.Ctx) (*model.VideoRecord, error) {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return nil, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	var req model.VideoAnalysisRequest
	if err := bindOptional(c, &req); err != nil {
		return nil, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	if req.Video != nil {
		req.Video.VideoID = videoID
		if msg := middleware.ValidateStruct(req.Video); msg != "" {
			return nil, middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
		}
		return req.Video, nil
	}

	video, err := h.svc.LoadVideo(c.Context(), videoID)
	if err != nil {
		return nil, serviceError(c, err, "Failed to fetch video data")
	}
	return video, nil
}
