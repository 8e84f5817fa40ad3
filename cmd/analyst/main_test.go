package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

const videoMetrics = `{"ctr": 12, "mainTrafficSource": "search", "avgPercentageViewed": 60, "avgViewDuration": 300, "durationSeconds": 400, "retentionAt15s": 85, "likes": 500, "comments": 60, "shares": 10, "views": 10000, "subscribersGained": 25}`

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScoreCmd_Video(t *testing.T) {
	out, err := runCmd(t, "score", writeFile(t, videoMetrics))
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}

	var score model.AlgorithmScore
	if err := json.Unmarshal([]byte(out), &score); err != nil {
		t.Fatalf("output is not a score: %v\n%s", err, out)
	}
	if score.Overall != 92.5 || score.Grade != model.GradeAPlus {
		t.Errorf("score = %.2f %s, want 92.50 A+", score.Overall, score.Grade)
	}
}

func TestScoreCmd_ChannelArray(t *testing.T) {
	out, err := runCmd(t, "score", writeFile(t, "\n ["+videoMetrics+","+videoMetrics+"]"))
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}

	var score model.AlgorithmScore
	if err := json.Unmarshal([]byte(out), &score); err != nil {
		t.Fatalf("output is not a score: %v\n%s", err, out)
	}
	if score.Overall != 92.5 {
		t.Errorf("channel of identical videos scored %.2f, want 92.50", score.Overall)
	}
}

func TestScoreCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad json", "{", "parse metrics"},
		{"out of range", `{"ctr": 150}`, "ctr must be at most 100"},
		{"bad array element", `[{"views": -1}]`, "video 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, "score", writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestScoreCmd_MissingFile(t *testing.T) {
	if _, err := runCmd(t, "score", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPruneCmd_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := runCmd(t, "prune")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("err = %v", err)
	}
}

func TestAnalyzeCmd_RequiresYouTubeKey(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "")
	_, err := runCmd(t, "analyze", "UCabc")
	if err == nil || !strings.Contains(err.Error(), "YOUTUBE_API_KEY") {
		t.Errorf("err = %v", err)
	}
}
