package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// Browser-facing surface of the API: JSON bodies only, no credentials.
var (
	corsMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodOptions}
	corsHeaders = []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept}
	// Set by RateLimiter.
	corsExposed = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
)

const corsMaxAge = 3600

// ParseOrigins splits a comma-separated origin list, trimming blanks,
// trailing slashes and duplicates. An empty list, or one containing "*",
// allows every origin.
func ParseOrigins(list string) []string {
	seen := map[string]struct{}{}
	var origins []string
	for _, o := range strings.Split(list, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// NewCORS returns the CORS middleware for the origins in corsOrigins
// (e.g. "https://studio.example.com,http://localhost:3000").
func NewCORS(corsOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  ParseOrigins(corsOrigins),
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: corsExposed,
		MaxAge:        corsMaxAge,
	})
}
