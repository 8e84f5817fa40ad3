package service

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

const wellFormedOutput = "```json\n" + `{
  "recommendations": [
    {
      "title": "Rework the first 15 seconds",
      "category": "Hook Improvement",
      "priority": "High",
      "description": "Viewers leave before the payoff is promised.",
      "detailedDescription": "1) Script: open with the result (2 days) 2) Cut the channel intro 3) Preview the payoff in the first sentence (1 week)",
      "effortLevel": "Low",
      "timeline": {"implementation": "1 week", "results": "2-4 weeks"},
      "successMetric": {
        "metric": "Retention at 15s",
        "current": 55,
        "target": "66%",
        "timeframe": "30 days",
        "confidenceLevel": "High",
        "measurementMethod": "YouTube Studio audience retention"
      },
      "reasoning": "Early drop-off suppresses browse impressions."
    }
  ]
}` + "\n```"

func TestParse_WellFormed(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := NewRecommendationParser().ParseAt(wellFormedOutput, "vid123", model.TargetVideo, "gemini-2.0-flash", at)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	r := recs[0]

	if r.Category != model.CategoryHookImprovement {
		t.Errorf("Category = %s, want hook_improvement", r.Category)
	}
	if r.Priority != model.PriorityHigh {
		t.Errorf("Priority = %s, want high", r.Priority)
	}
	if r.Confidence != 0.9 || r.ExpectedImpact.Confidence != 0.9 {
		t.Errorf("Confidence = %.2f/%.2f, want 0.9", r.Confidence, r.ExpectedImpact.Confidence)
	}
	if r.ExpectedImpact.CurrentValue != 55 || r.ExpectedImpact.ProjectedValue != 66 {
		t.Errorf("impact values = %.2f -> %.2f, want 55 -> 66", r.ExpectedImpact.CurrentValue, r.ExpectedImpact.ProjectedValue)
	}
	if r.ExpectedImpact.Improvement != 20 {
		t.Errorf("Improvement = %.2f, want 20", r.ExpectedImpact.Improvement)
	}
	if r.ExpectedImpact.Timeframe != "30 days" {
		t.Errorf("Timeframe = %q", r.ExpectedImpact.Timeframe)
	}
	if r.Status != model.StatusPending || !r.CreatedAt.Equal(at) {
		t.Errorf("Status/CreatedAt = %s/%s", r.Status, r.CreatedAt)
	}
	if r.ID == uuid.Nil {
		t.Error("ID not assigned")
	}
	if r.TargetID != "vid123" || r.TargetType != model.TargetVideo || r.GeneratedBy != "gemini-2.0-flash" {
		t.Errorf("target fields = %s/%s/%s", r.TargetID, r.TargetType, r.GeneratedBy)
	}

	if len(r.ActionItems) != 3 {
		t.Fatalf("got %d action items, want 3: %+v", len(r.ActionItems), r.ActionItems)
	}
	first := r.ActionItems[0]
	if first.Action != "Script" || first.Details != "open with the result" || first.Timeline != "2 days" || first.Order != 1 {
		t.Errorf("item 1 = %+v", first)
	}
	if r.ActionItems[1].Timeline != "1 week" {
		t.Errorf("item 2 timeline = %q, want timeline.implementation fallback", r.ActionItems[1].Timeline)
	}
	for _, it := range r.ActionItems {
		if it.Effort != model.EffortLow {
			t.Errorf("item %d effort = %s, want uniform low", it.Order, it.Effort)
		}
	}
}

func TestParse_NoNumberedItemsWrapsDescription(t *testing.T) {
	out := `{"recommendations":[{"title":"Post weekly","category":"Upload Schedule","priority":"medium","description":"Pick a fixed day.","detailedDescription":"Publish every Thursday at 5pm so subscribers learn the rhythm.","effortLevel":"medium","timeline":{"implementation":"2 weeks"},"successMetric":{"metric":"Returning viewers","current":0,"target":100,"confidenceLevel":"Unsure"}}]}`

	recs := NewRecommendationParser().Parse(out, "UC1", model.TargetChannel, "m")
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	r := recs[0]
	if len(r.ActionItems) != 1 {
		t.Fatalf("got %d action items, want 1", len(r.ActionItems))
	}
	it := r.ActionItems[0]
	if it.Order != 1 || it.Details != "Publish every Thursday at 5pm so subscribers learn the rhythm." || it.Timeline != "2 weeks" {
		t.Errorf("wrapped item = %+v", it)
	}
	if r.ExpectedImpact.Improvement != 0 {
		t.Errorf("Improvement = %.2f, want 0 when current is 0", r.ExpectedImpact.Improvement)
	}
	if r.Confidence != 0.7 {
		t.Errorf("Confidence = %.2f, want default 0.7", r.Confidence)
	}
	if r.Category != model.CategoryUploadSchedule {
		t.Errorf("Category = %s", r.Category)
	}
}

func TestParse_UnknownCategoryAndPriority(t *testing.T) {
	out := `{"recommendations":[{"title":"X","category":"Vibes","priority":"urgent","effortLevel":"extreme","description":"d"}]}`
	r := NewRecommendationParser().Parse(out, "v", model.TargetVideo, "m")[0]
	if r.Category != model.CategoryContentStructure {
		t.Errorf("Category = %s, want content_structure", r.Category)
	}
	if r.Priority != model.PriorityMedium {
		t.Errorf("Priority = %s, want medium", r.Priority)
	}
	if r.ActionItems[0].Effort != model.EffortMedium {
		t.Errorf("Effort = %s, want medium", r.ActionItems[0].Effort)
	}
}

func TestParse_MultipleShareTimestampDistinctIDs(t *testing.T) {
	out := `{"recommendations":[{"title":"A","category":"Shorts Strategy"},{"title":"B","category":"playlist strategy"}]}`
	at := time.Now().UTC()
	recs := NewRecommendationParser().ParseAt(out, "UC1", model.TargetChannel, "m", at)
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].ID == recs[1].ID {
		t.Error("recommendations share an ID")
	}
	if !recs[0].CreatedAt.Equal(recs[1].CreatedAt) {
		t.Error("recommendations have different CreatedAt")
	}
	if recs[0].Category != model.CategoryShortsStrategy || recs[1].Category != model.CategoryPlaylistStrategy {
		t.Errorf("categories = %s, %s", recs[0].Category, recs[1].Category)
	}
}

func TestParse_FallbackForText(t *testing.T) {
	text := strings.Repeat("é", 300) + strings.Repeat("a", 400)
	recs := NewRecommendationParser().Parse(text, "v", model.TargetVideo, "m")
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	r := recs[0]

	wantDesc := string([]rune(text)[:500]) + "..."
	if r.Description != wantDesc {
		t.Errorf("Description has %d runes, want first 500 plus ellipsis", utf8.RuneCountInString(r.Description))
	}
	if r.Priority != model.PriorityHigh || r.Confidence != 0.75 || r.Category != model.CategoryContentStructure {
		t.Errorf("fallback fields = %s %.2f %s", r.Priority, r.Confidence, r.Category)
	}
	if len(r.ActionItems) != 1 {
		t.Fatalf("got %d action items, want 1", len(r.ActionItems))
	}
	it := r.ActionItems[0]
	if it.Details != text || it.Effort != model.EffortHigh || it.Timeline != "1-2 weeks" {
		t.Errorf("fallback item = effort %s timeline %q, details match %v", it.Effort, it.Timeline, it.Details == text)
	}
}

func TestParse_FallbackShortTextStillGetsEllipsis(t *testing.T) {
	r := NewRecommendationParser().Parse("Improve your thumbnails.", "v", model.TargetVideo, "m")[0]
	if r.Description != "Improve your thumbnails...." {
		t.Errorf("Description = %q", r.Description)
	}
}

func TestParse_ShapeMismatchFallsBack(t *testing.T) {
	for _, out := range []string{
		`{"suggestions":[{"title":"x"}]}`,
		`{"recommendations":[]}`,
		`{"recommendations":"none"}`,
		`{"recommendations":[1, 2]}`,
		`[{"title":"x"}]`,
		`{"recommendations":[{"title":"x"}`,
	} {
		recs := NewRecommendationParser().Parse(out, "v", model.TargetVideo, "m")
		if len(recs) != 1 || recs[0].Confidence != 0.75 {
			t.Errorf("Parse(%q) did not take the fallback path: %+v", out, recs)
		}
	}
}

func TestParse_JSONSurroundedByProse(t *testing.T) {
	out := `Here you go: {"recommendations":[{"title":"A","category":"Engagement Boost"}]} Good luck!`
	recs := NewRecommendationParser().Parse(out, "v", model.TargetVideo, "m")
	if len(recs) != 1 || recs[0].Category != model.CategoryEngagementBoost {
		t.Errorf("Parse() = %+v", recs)
	}
}

func TestParse_EmptyOutput(t *testing.T) {
	recs := NewRecommendationParser().Parse("", "v", model.TargetVideo, "m")
	if recs == nil || len(recs) != 0 {
		t.Errorf("Parse(\"\") = %#v, want empty list", recs)
	}
}

func TestParse_WhitespaceOutputFallsBack(t *testing.T) {
	recs := NewRecommendationParser().Parse("  \n ", "v", model.TargetVideo, "m")
	if len(recs) != 1 || recs[0].Confidence != 0.75 {
		t.Errorf("Parse(blank) = %+v, want the single fallback recommendation", recs)
	}
}

func TestParse_ElementFieldDrift(t *testing.T) {
	tests := []struct {
		name         string
		element      string
		wantPriority model.Priority
		wantConf     float64
		wantEffort   model.Effort
		wantTimeline string
	}{
		{
			name:         "timeline as string",
			element:      `{"title":"T","category":"Title Optimization","priority":"critical","description":"Rewrite titles","timeline":"2 weeks","successMetric":{"confidenceLevel":"High"}}`,
			wantPriority: model.PriorityCritical,
			wantConf:     0.9,
			wantEffort:   model.EffortMedium,
			wantTimeline: "2 weeks",
		},
		{
			name:         "numeric confidence level",
			element:      `{"title":"T","category":"Title Optimization","priority":"low","description":"Rewrite titles","successMetric":{"confidenceLevel":0.9,"current":10,"target":12}}`,
			wantPriority: model.PriorityLow,
			wantConf:     0.7,
			wantEffort:   model.EffortMedium,
		},
		{
			name:         "non-string priority and effort",
			element:      `{"title":"T","category":"Title Optimization","priority":1,"effortLevel":["low"],"description":"Rewrite titles","timeline":{"implementation":"3 days"}}`,
			wantPriority: model.PriorityMedium,
			wantConf:     0.7,
			wantEffort:   model.EffortMedium,
			wantTimeline: "3 days",
		},
		{
			name:         "success metric as string",
			element:      `{"title":"T","category":"Title Optimization","priority":"high","description":"Rewrite titles","successMetric":"CTR up 2 points","timeline":null}`,
			wantPriority: model.PriorityHigh,
			wantConf:     0.7,
			wantEffort:   model.EffortMedium,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := `{"recommendations":[` + tt.element + `]}`
			recs := NewRecommendationParser().Parse(out, "v", model.TargetVideo, "m")
			if len(recs) != 1 {
				t.Fatalf("got %d recommendations, want 1", len(recs))
			}
			r := recs[0]
			if r.Category != model.CategoryTitleOptimization || r.Title != "T" {
				t.Fatalf("element was not mapped (fallback taken?): %+v", r)
			}
			if r.Priority != tt.wantPriority {
				t.Errorf("Priority = %s, want %s", r.Priority, tt.wantPriority)
			}
			if r.Confidence != tt.wantConf {
				t.Errorf("Confidence = %.2f, want %.2f", r.Confidence, tt.wantConf)
			}
			if len(r.ActionItems) != 1 {
				t.Fatalf("got %d action items, want 1", len(r.ActionItems))
			}
			if it := r.ActionItems[0]; it.Effort != tt.wantEffort || it.Timeline != tt.wantTimeline {
				t.Errorf("action item = effort %s timeline %q", it.Effort, it.Timeline)
			}
		})
	}
}

func TestParse_MixedElements(t *testing.T) {
	out := `{"recommendations":[42, "Pin a comment asking a question", {"title":"B","category":"Shorts"}, null]}`
	recs := NewRecommendationParser().Parse(out, "v", model.TargetVideo, "m")
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2: %+v", len(recs), recs)
	}
	if recs[0].Description != "Pin a comment asking a question" || recs[0].Title != "Recommendation 1" {
		t.Errorf("string element = %+v", recs[0])
	}
	if recs[1].Title != "B" || recs[1].Category != model.CategoryShortsStrategy {
		t.Errorf("object element = %+v", recs[1])
	}
}

func TestLookupCategory(t *testing.T) {
	tests := []struct {
		label string
		want  model.Category
		ok    bool
	}{
		{"Title Optimization", model.CategoryTitleOptimization, true},
		{"thumbnail_optimization", model.CategoryThumbnailOptimization, true},
		{"Description SEO", model.CategoryDescriptionSEO, true},
		{"Tags & Keywords", model.CategoryTagsKeywords, true},
		{"Tags and Keywords", model.CategoryTagsKeywords, true},
		{"Retention-Optimization", model.CategoryRetentionOptimization, true},
		{"  COMMUNITY   BUILDING ", model.CategoryCommunityBuilding, true},
		{"Monetization", model.CategoryMonetization, true},
		{"", model.CategoryContentStructure, false},
		{"Astrology", model.CategoryContentStructure, false},
	}
	for _, tt := range tests {
		got, ok := LookupCategory(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LookupCategory(%q) = %s, %v, want %s, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestConfidenceFor(t *testing.T) {
	for level, want := range map[string]float64{"Low": 0.5, "medium": 0.7, "HIGH": 0.9, "": 0.7, "certain": 0.7} {
		if got := ConfidenceFor(level); got != want {
			t.Errorf("ConfidenceFor(%q) = %.2f, want %.2f", level, got, want)
		}
	}
}

func TestImprovement(t *testing.T) {
	tests := []struct{ cur, target, want float64 }{
		{50, 75, 50},
		{4, 3, -25},
		{0, 10, 0},
		{3, 4, 33.33},
	}
	for _, tt := range tests {
		if got := Improvement(tt.cur, tt.target); got != tt.want {
			t.Errorf("Improvement(%.0f, %.0f) = %.2f, want %.2f", tt.cur, tt.target, got, tt.want)
		}
	}
}
