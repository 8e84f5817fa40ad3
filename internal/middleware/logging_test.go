package middleware

import "testing"

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/channels/UCabc/recommendations", "/api/channels/:channelId/recommendations"},
		{"/api/videos/dQw4w9WgXcQ/titles", "/api/videos/:videoId/titles"},
		{"/api/videos/score", "/api/videos/score"},
		{"/api/channels/score", "/api/channels/score"},
		{"/api/recommendations/6f1c2a9e-0000-4000-8000-000000000000/status", "/api/recommendations/:id/status"},
		{"/api/channels/UCabc/recommendations/latest", "/api/channels/:channelId/recommendations/latest"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.in); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashIPForLog(t *testing.T) {
	a := hashIPForLog("203.0.113.7")
	if len(a) != 12 {
		t.Errorf("len = %d, want 12", len(a))
	}
	if a == hashIPForLog("203.0.113.8") {
		t.Error("different IPs hashed to the same prefix")
	}
}
