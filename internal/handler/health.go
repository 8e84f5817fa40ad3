package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/youtube"
)

// Dependency states reported by Ready.
const (
	checkUp       = "up"
	checkDown     = "down"
	checkDisabled = "disabled"
	checkProbing  = "probing"
)

// Overall readiness. Only a critical dependency being down makes the
// service unavailable.
const (
	readyHealthy     = "healthy"
	readyDegraded    = "degraded"
	readyUnavailable = "unavailable"
)

// DependencyCheck is one entry of the readiness report.
type DependencyCheck struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
	Model     string `json:"model,omitempty"`
	Breaker   string `json:"breaker,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReadinessReport is the body of GET /health/ready.
type ReadinessReport struct {
	Status        string                     `json:"status"`
	Checks        map[string]DependencyCheck `json:"checks"`
	UptimeSeconds int                        `json:"uptime_seconds"`
}

type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	model   string
	youtube *youtube.BreakerClient
	startAt time.Time
}

// NewHealthHandler reports on the database, the cache, the generation model
// and the YouTube circuit breaker. Any of them may be nil or empty when not
// configured.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, model string, yt *youtube.BreakerClient) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		rdb:     rdb,
		model:   model,
		youtube: yt,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. Generation and the database are critical;
// a down cache or an open YouTube breaker only degrades the service.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	report := ReadinessReport{
		Checks: map[string]DependencyCheck{
			"database":   checkDB(ctx, h.pool),
			"cache":      checkRedis(ctx, h.rdb),
			"generation": checkGeneration(h.model),
			"youtube":    checkYouTube(h.youtube),
		},
		UptimeSeconds: int(time.Since(h.startAt).Seconds()),
	}
	report.Status = readiness(report.Checks)

	status := fiber.StatusOK
	if report.Status == readyUnavailable {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

func readiness(checks map[string]DependencyCheck) string {
	overall := readyHealthy
	for _, chk := range checks {
		switch chk.Status {
		case checkDown:
			if chk.Critical {
				return readyUnavailable
			}
			overall = readyDegraded
		case checkProbing:
			overall = readyDegraded
		}
	}
	return overall
}

func checkDB(ctx context.Context, pool *pgxpool.Pool) DependencyCheck {
	if pool == nil {
		// Snapshots are kept in memory.
		return DependencyCheck{Status: checkDisabled}
	}
	return ping(true, func() error { return pool.Ping(ctx) })
}

func checkRedis(ctx context.Context, rdb *redis.Client) DependencyCheck {
	if rdb == nil {
		return DependencyCheck{Status: checkDisabled}
	}
	return ping(false, func() error { return rdb.Ping(ctx).Err() })
}

func ping(critical bool, fn func() error) DependencyCheck {
	start := time.Now()
	err := fn()
	latency := time.Since(start).Milliseconds()

	chk := DependencyCheck{Status: checkUp, Critical: critical, LatencyMs: &latency}
	if err != nil {
		chk.Status = checkDown
		chk.Error = "connection failed"
	}
	return chk
}

func checkGeneration(model string) DependencyCheck {
	if model == "" {
		return DependencyCheck{Status: checkDown, Critical: true, Error: "no generation model configured"}
	}
	return DependencyCheck{Status: checkUp, Critical: true, Model: model}
}

func checkYouTube(b *youtube.BreakerClient) DependencyCheck {
	if b == nil {
		return DependencyCheck{Status: checkDisabled}
	}

	state := b.State()
	chk := DependencyCheck{Status: checkUp, Breaker: state.String()}
	switch state {
	case gobreaker.StateOpen:
		chk.Status = checkDown
		chk.Error = "circuit open"
	case gobreaker.StateHalfOpen:
		chk.Status = checkProbing
	}
	return chk
}
