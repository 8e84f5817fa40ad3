package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

type FeedbackHandler struct {
	svc *service.FeedbackService
}

func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// Get handles GET /api/recommendations/:id
func (h *FeedbackHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateRecommendationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	rec, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to fetch recommendation")
	}
	return c.JSON(rec)
}

// UpdateStatus handles PATCH /api/recommendations/:id/status
func (h *FeedbackHandler) UpdateStatus(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateRecommendationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	var req model.StatusUpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if msg := middleware.ValidateStruct(req); msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}

	rec, err := h.svc.UpdateStatus(c.Context(), id, req)
	if err != nil {
		return serviceError(c, err, "Failed to update status")
	}
	return c.JSON(rec)
}

// Submit handles POST /api/recommendations/:id/feedback
func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateRecommendationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	var req model.FeedbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if msg := middleware.ValidateStruct(req); msg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", msg)
	}
	if req.Rating == nil && req.Text == "" && req.Helpful == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "One of rating, text or helpful is required")
	}

	fb, err := h.svc.Submit(c.Context(), id, req)
	if err != nil {
		return serviceError(c, err, "Failed to submit feedback")
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}
