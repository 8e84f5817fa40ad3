package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), "", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig(service.GenerateOptions{
		Temperature:  0.7,
		MaxTokens:    4096,
		SystemPrompt: "Be concise.",
		JSON:         true,
	})
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.7) {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 4096 {
		t.Errorf("MaxOutputTokens = %d", cfg.MaxOutputTokens)
	}
	if cfg.SystemInstruction == nil || len(cfg.SystemInstruction.Parts) != 1 || cfg.SystemInstruction.Parts[0].Text != "Be concise." {
		t.Errorf("SystemInstruction = %+v", cfg.SystemInstruction)
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q", cfg.ResponseMIMEType)
	}

	plain := buildConfig(service.GenerateOptions{})
	if plain.SystemInstruction != nil || plain.ResponseMIMEType != "" || plain.MaxOutputTokens != 0 {
		t.Errorf("plain config = %+v", plain)
	}
}
