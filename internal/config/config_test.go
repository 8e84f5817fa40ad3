package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "GEMINI_MODEL", "AI_TEMPERATURE", "AI_MAX_RETRIES", "RECOMMENDATION_EXPIRY", "SNAPSHOT_RETENTION"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q", cfg.GeminiModel)
	}
	if cfg.AITemperature != 0.7 || cfg.AIMaxRetries != 3 {
		t.Errorf("AI defaults = %v/%d", cfg.AITemperature, cfg.AIMaxRetries)
	}
	if cfg.RecommendationExpiry != 720*time.Hour || cfg.SnapshotRetention != 5 {
		t.Errorf("maintenance defaults = %v/%d", cfg.RecommendationExpiry, cfg.SnapshotRetention)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_VALIDATE_RESPONSES", "true")
	t.Setenv("AI_RETRY_BASE_DELAY", "250ms")
	t.Setenv("YOUTUBE_MAX_VIDEOS", "10")

	cfg := Load()
	if cfg.AITemperature != 0.2 {
		t.Errorf("AITemperature = %v", cfg.AITemperature)
	}
	if !cfg.AIValidate {
		t.Error("AIValidate = false, want true")
	}
	if cfg.AIRetryBaseDelay != 250*time.Millisecond {
		t.Errorf("AIRetryBaseDelay = %v", cfg.AIRetryBaseDelay)
	}
	if cfg.YouTubeMaxVideos != 10 {
		t.Errorf("YouTubeMaxVideos = %d", cfg.YouTubeMaxVideos)
	}
}

func TestTypedHelpers_FallBackOnParseFailure(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_FLOAT", "warm")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	if got := getEnvInt("X_INT", 3); got != 3 {
		t.Errorf("getEnvInt = %d", got)
	}
	if got := getEnvFloat("X_FLOAT", 0.5); got != 0.5 {
		t.Errorf("getEnvFloat = %v", got)
	}
	if got := getEnvBool("X_BOOL", true); !got {
		t.Errorf("getEnvBool = %v", got)
	}
	if got := getEnvDuration("X_DUR", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration = %v", got)
	}
}
