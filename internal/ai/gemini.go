// Package ai adapts hosted generative models to service.Generator.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrNoAPIKey is returned by NewGeminiClient without an API key.
var ErrNoAPIKey = errors.New("gemini: API key not configured")

// GeminiClient calls the Gemini API through google.golang.org/genai.
type GeminiClient struct {
	models *genai.Models
	model  string
}

// NewGeminiClient creates a client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{models: client.Models, model: model}, nil
}

// Generate sends one prompt. Any API failure or an empty candidate list is
// returned as an error so the caller may retry.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts service.GenerateOptions) (*service.GenerationResult, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), buildConfig(opts))
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New("gemini: response has no candidates")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	log.Debug().
		Str("model", model).
		Int("tokens", tokens).
		Dur("duration", elapsed).
		Msg("gemini: generation complete")

	return &service.GenerationResult{
		Content:    resp.Text(),
		TokensUsed: tokens,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

func buildConfig(opts service.GenerateOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
