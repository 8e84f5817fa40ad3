package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/repository"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/youtube"
)

// serviceError maps pipeline and store errors to API error responses.
// fallback is the message used for unexpected internal errors.
func serviceError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrGenerationFailed):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "GENERATION_FAILED", err.Error())
	case errors.Is(err, service.ErrRejectedResponse):
		return middleware.ErrorResponse(c, fiber.StatusBadGateway, "RESPONSE_REJECTED", err.Error())
	case errors.Is(err, service.ErrNoVideos):
		return middleware.ErrorResponse(c, fiber.StatusUnprocessableEntity, "NO_VIDEOS", "No videos available for analysis")
	case errors.Is(err, service.ErrNoDataSource):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "DATA_SOURCE_UNAVAILABLE",
			"YouTube data source is not configured; include the data in the request body")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE",
			"YouTube API is temporarily unavailable, try again later")
	case errors.Is(err, youtube.ErrNotFound), errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrVideoNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, model.ErrInvalidTransition):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return middleware.ErrorResponse(c, fiber.StatusGatewayTimeout, "TIMEOUT", "Request timed out")
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// bindOptional decodes a JSON body when one is present. An empty body leaves
// dst untouched.
func bindOptional(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.Bind().JSON(dst)
}
