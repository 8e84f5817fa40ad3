package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

type ScoreHandler struct {
	svc *service.ScoreService
}

func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{svc: svc}
}

// ScoreVideo handles POST /api/videos/score
func (h *ScoreHandler) ScoreVideo(c fiber.Ctx) error {
	var req model.VideoMetrics
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if msg := middleware.ValidateStruct(req); msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	return c.JSON(h.svc.ScoreVideo(c.Context(), req))
}

// ScoreChannel handles POST /api/channels/score
func (h *ScoreHandler) ScoreChannel(c fiber.Ctx) error {
	var req model.ChannelScoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if msg := middleware.ValidateStruct(req); msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	return c.JSON(h.svc.ScoreChannel(c.Context(), req.Videos))
}
