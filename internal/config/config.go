package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	Environment string
	CORSOrigins string

	GeminiAPIKey       string
	GeminiModel        string
	AITemperature      float64
	AIMaxTokens        int
	AIMaxRetries       int
	AIRetryBaseDelay   time.Duration
	AIValidate         bool
	AIMinResponseLen   int
	StrictPrompts      bool
	GenerationCacheTTL time.Duration

	YouTubeAPIKey    string
	YouTubeBaseURL   string
	YouTubeMaxVideos int

	SnapshotRetention    int
	RecommendationExpiry time.Duration
	MaintenanceInterval  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("config: could not read .env file")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AITemperature:      getEnvFloat("AI_TEMPERATURE", 0.7),
		AIMaxTokens:        getEnvInt("AI_MAX_TOKENS", 4096),
		AIMaxRetries:       getEnvInt("AI_MAX_RETRIES", 3),
		AIRetryBaseDelay:   getEnvDuration("AI_RETRY_BASE_DELAY", time.Second),
		AIValidate:         getEnvBool("AI_VALIDATE_RESPONSES", false),
		AIMinResponseLen:   getEnvInt("AI_MIN_RESPONSE_LENGTH", 100),
		StrictPrompts:      getEnvBool("PROMPT_STRICT_PLACEHOLDERS", false),
		GenerationCacheTTL: getEnvDuration("GENERATION_CACHE_TTL", 24*time.Hour),

		YouTubeAPIKey:    getEnv("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL:   getEnv("YOUTUBE_BASE_URL", ""),
		YouTubeMaxVideos: getEnvInt("YOUTUBE_MAX_VIDEOS", 25),

		SnapshotRetention:    getEnvInt("SNAPSHOT_RETENTION", 5),
		RecommendationExpiry: getEnvDuration("RECOMMENDATION_EXPIRY", 720*time.Hour),
		MaintenanceInterval:  getEnvDuration("MAINTENANCE_INTERVAL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
