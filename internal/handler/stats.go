package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

type StatsHandler struct {
	svc *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.svc.GetStats(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch statistics")
	}

	return c.JSON(stats)
}

// ChannelHistory handles GET /api/channels/:channelId/history?since=RFC3339
func (h *StatsHandler) ChannelHistory(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	return h.history(c, channelID, model.TargetChannel)
}

// VideoHistory handles GET /api/videos/:videoId/history?since=RFC3339
func (h *StatsHandler) VideoHistory(c fiber.Ctx) error {
	videoID, errMsg := middleware.ValidateVideoID(c.Params("videoId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	return h.history(c, videoID, model.TargetVideo)
}

func (h *StatsHandler) history(c fiber.Ctx, targetID string, targetType model.TargetType) error {
	since, errMsg := middleware.ValidateSince(fiber.Query[string](c, "since"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	resp, err := h.svc.History(c.Context(), targetID, targetType, since)
	if err != nil {
		return serviceError(c, err, "Failed to fetch history")
	}
	return c.JSON(resp)
}
