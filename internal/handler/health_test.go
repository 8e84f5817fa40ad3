package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/youtube"
)

func readyReport(t *testing.T, h *HealthHandler) (int, ReadinessReport) {
	t.Helper()
	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var report ReadinessReport
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return resp.StatusCode, report
}

func TestReady_InMemoryDeployment(t *testing.T) {
	status, report := readyReport(t, NewHealthHandler(nil, nil, "gemini-2.0-flash", nil))
	if status != http.StatusOK || report.Status != readyHealthy {
		t.Fatalf("status = %d %s, want 200 healthy", status, report.Status)
	}
	if report.Checks["database"].Status != checkDisabled || report.Checks["youtube"].Status != checkDisabled {
		t.Errorf("checks = %+v", report.Checks)
	}
	if gen := report.Checks["generation"]; gen.Status != checkUp || gen.Model != "gemini-2.0-flash" {
		t.Errorf("generation check = %+v", gen)
	}
}

func TestReady_NoGenerationModelIsUnavailable(t *testing.T) {
	status, report := readyReport(t, NewHealthHandler(nil, nil, "", nil))
	if status != http.StatusServiceUnavailable || report.Status != readyUnavailable {
		t.Errorf("status = %d %s, want 503 unavailable", status, report.Status)
	}
}

func TestReady_OpenBreakerDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
	}))
	defer srv.Close()

	breaker := youtube.NewBreakerClient(
		youtube.NewClient("key", youtube.WithBaseURL(srv.URL)),
		youtube.BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 1, FailureRatio: 0.5},
	)
	if _, err := breaker.GetChannelData(context.Background(), "UCabc"); err == nil {
		t.Fatal("expected upstream error")
	}

	status, report := readyReport(t, NewHealthHandler(nil, nil, "gemini-2.0-flash", breaker))
	if status != http.StatusOK || report.Status != readyDegraded {
		t.Fatalf("status = %d %s, want 200 degraded", status, report.Status)
	}
	if yt := report.Checks["youtube"]; yt.Status != checkDown || yt.Breaker != "open" {
		t.Errorf("youtube check = %+v", yt)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]DependencyCheck
		want   string
	}{
		{"all up", map[string]DependencyCheck{"a": {Status: checkUp, Critical: true}, "b": {Status: checkDisabled}}, readyHealthy},
		{"optional down", map[string]DependencyCheck{"a": {Status: checkUp, Critical: true}, "b": {Status: checkDown}}, readyDegraded},
		{"probing", map[string]DependencyCheck{"b": {Status: checkProbing}}, readyDegraded},
		{"critical down", map[string]DependencyCheck{"a": {Status: checkDown, Critical: true}, "b": {Status: checkDown}}, readyUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := readiness(tt.checks); got != tt.want {
				t.Errorf("readiness() = %s, want %s", got, tt.want)
			}
		})
	}
}
