package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/pkg/hash"
)

var (
	// ErrGenerationFailed is wrapped by the terminal error after all retry
	// attempts have failed.
	ErrGenerationFailed = errors.New("AI generation failed")
	// ErrRejectedResponse is returned when a response fails the quality gate.
	ErrRejectedResponse = errors.New("AI response rejected")
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMinLength  = 100
)

// GenerateOptions are the per-call model parameters.
type GenerateOptions struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	// JSON asks the backend for a JSON response when it supports it.
	JSON bool
	// Fresh skips cached responses. The new result still replaces them.
	Fresh bool
}

// GenerationResult is the text returned by a generation backend.
type GenerationResult struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// Generator produces text from a prompt. Implementations return an error for
// any failure worth retrying.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*GenerationResult, error)
}

// Retrier retries failed generation calls with exponential backoff: after
// failed attempt n it waits 2^n * BaseDelay before the next one.
type Retrier struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NewRetrier returns a Retrier, applying defaults for non-positive values.
func NewRetrier(maxRetries int, baseDelay time.Duration) Retrier {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return Retrier{MaxRetries: maxRetries, BaseDelay: baseDelay}
}

// GenerateWithRetry calls gen until it succeeds or MaxRetries attempts have
// failed. Successful responses are returned as-is regardless of content.
// Cancelling ctx stops further attempts and returns the context error.
func (r Retrier) GenerateWithRetry(ctx context.Context, gen Generator, prompt string, opts GenerateOptions) (*GenerationResult, error) {
	attempts := r.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			metrics.GenerationAttempts.WithLabelValues("canceled").Inc()
			return nil, err
		}

		res, err := gen.Generate(ctx, prompt, opts)
		if err == nil {
			metrics.GenerationAttempts.WithLabelValues("success").Inc()
			metrics.GenerationDuration.Observe(float64(res.DurationMs) / 1000)
			metrics.GenerationTokens.Add(float64(res.TokensUsed))
			return res, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.GenerationAttempts.WithLabelValues("canceled").Inc()
			return nil, ctxErr
		}
		metrics.GenerationAttempts.WithLabelValues("error").Inc()

		if attempt == attempts {
			break
		}

		delay := r.backoff(attempt)
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", delay).
			Msg("generation attempt failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			metrics.GenerationAttempts.WithLabelValues("canceled").Inc()
			return nil, ctx.Err()
		}
	}

	log.Error().Err(lastErr).Int("attempts", attempts).Msg("generation failed")
	return nil, &GenerationError{Attempts: attempts, Cause: lastErr}
}

func (r Retrier) backoff(attempt int) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return base * time.Duration(1<<attempt)
}

// GenerationError is returned after every attempt failed. It matches
// ErrGenerationFailed with errors.Is and unwraps to the last cause.
type GenerationError struct {
	Attempts int
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrGenerationFailed, e.Attempts, e.Cause)
}

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

func (e *GenerationError) Unwrap() error { return e.Cause }

var refusalPhrases = []string{
	"I cannot",
	"I can't",
	"I'm unable to",
	"I am unable to",
	"As an AI",
}

// ValidateResponse is the optional quality gate for generated content. It
// returns a reason when content is empty, shorter than minLength characters,
// or contains a refusal phrase.
func ValidateResponse(content string, minLength int) (ok bool, reason string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false, "empty response"
	}
	if n := utf8.RuneCountInString(trimmed); n < minLength {
		return false, fmt.Sprintf("response too short (%d < %d characters)", n, minLength)
	}
	for _, p := range refusalPhrases {
		if strings.Contains(trimmed, p) {
			return false, fmt.Sprintf("response contains refusal phrase %q", p)
		}
	}
	return true, ""
}

// CachingGenerator serves repeated identical requests from the cache unless
// the request is marked Fresh. Failed generations are never cached.
type CachingGenerator struct {
	next  Generator
	cache *CacheService
}

// NewCachingGenerator wraps next. With a disabled cache it is a pass-through.
func NewCachingGenerator(next Generator, cache *CacheService) *CachingGenerator {
	return &CachingGenerator{next: next, cache: cache}
}

func (g *CachingGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*GenerationResult, error) {
	if !g.cache.Enabled() {
		return g.next.Generate(ctx, prompt, opts)
	}

	key := hash.PromptKey(opts.Model, opts.SystemPrompt, prompt, opts.Temperature, opts.MaxTokens)
	if !opts.Fresh {
		if cached, err := g.cache.GetGeneration(ctx, key); err != nil {
			log.Warn().Err(err).Msg("generation cache read failed")
		} else if cached != nil {
			log.Debug().Str("prompt_key", key[:12]).Msg("generation served from cache")
			return cached, nil
		}
	}

	res, err := g.next.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	if err := g.cache.SetGeneration(ctx, key, res); err != nil {
		log.Warn().Err(err).Msg("generation cache write failed")
	}
	return res, nil
}
