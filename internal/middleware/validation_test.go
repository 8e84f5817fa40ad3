package middleware

import (
	"strings"
	"testing"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"valid short", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"valid with dash", "abc-def_123", "abc-def_123", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long", "12345678901234567", "", true},
		{"exactly 16", "1234567890123456", "1234567890123456", false},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "a'; DROP--", "", true},
		{"unicode", "abcédef", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateVideoID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestValidateChannelID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "UCuAXFkgsw1L7xaCfnd5JJOw", "UCuAXFkgsw1L7xaCfnd5JJOw", false},
		{"empty", "", "", true},
		{"too long 33", "123456789012345678901234567890123", "", true},
		{"exactly 32", "12345678901234567890123456789012", "12345678901234567890123456789012", false},
		{"invalid chars", "UC test!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateChannelID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRecommendationID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "6f1c2a9e-3b4d-4e5f-8a7b-1c2d3e4f5a6b", false},
		{"trims whitespace", " 6f1c2a9e-3b4d-4e5f-8a7b-1c2d3e4f5a6b ", false},
		{"empty", "", true},
		{"not a uuid", "rec-1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, errMsg := ValidateRecommendationID(tt.input)
			if tt.wantErr != (errMsg != "") {
				t.Errorf("errMsg = %q", errMsg)
			}
			if !tt.wantErr && id.String() != strings.TrimSpace(tt.input) {
				t.Errorf("id = %s", id)
			}
		})
	}
}

func TestValidateSince(t *testing.T) {
	if ts, msg := ValidateSince(""); msg != "" || !ts.IsZero() {
		t.Errorf("empty: %v, %q", ts, msg)
	}
	if ts, msg := ValidateSince("2026-03-01T00:00:00Z"); msg != "" || ts.Year() != 2026 {
		t.Errorf("valid: %v, %q", ts, msg)
	}
	if _, msg := ValidateSince("yesterday"); msg == "" {
		t.Error("invalid value accepted")
	}
}

func TestValidateStruct(t *testing.T) {
	rating := func(v int) *int { return &v }

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"valid status", model.StatusUpdateRequest{Status: "implemented"}, ""},
		{"missing status", model.StatusUpdateRequest{}, "status is required"},
		{"unknown status", model.StatusUpdateRequest{Status: "done"}, "status must be one of"},
		{"valid feedback", model.FeedbackRequest{Rating: rating(5)}, ""},
		{"rating too high", model.FeedbackRequest{Rating: rating(6)}, "rating must be at most 5"},
		{"rating too low", model.FeedbackRequest{Rating: rating(0)}, "rating must be at least 1"},
		{"text too long", model.FeedbackRequest{Text: strings.Repeat("x", 2001)}, "text must be at most 2000 characters"},
		{"ctr out of range", model.VideoMetrics{CTR: 120}, "ctr must be at most 100"},
		{"negative views", model.VideoMetrics{Views: -1}, "views must be at least 0"},
		{"nested video metrics", model.ChannelScoreRequest{Videos: []model.VideoMetrics{{}, {Likes: -3}}}, "videos[1].likes must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateStruct(tt.in)
			if tt.want == "" && got != "" {
				t.Fatalf("unexpected error: %s", got)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("ValidateStruct() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
