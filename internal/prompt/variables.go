package prompt

import (
	"fmt"
	"strings"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

const (
	defaultRecommendationCount = 5
	defaultTitleCount          = 5
	maxDescriptionRunes        = 600
	maxRecentTitles            = 10
)

// ChannelVariables builds the variable map for the channel_analysis template.
// avg holds per-video averages across the analyzed videos.
func ChannelVariables(ch model.ChannelRecord, videos []model.VideoRecord, avg model.VideoMetrics, score model.AlgorithmScore, gaps []model.PerformanceGap) map[string]any {
	titles := make([]string, 0, maxRecentTitles)
	for _, v := range videos {
		if len(titles) == maxRecentTitles {
			break
		}
		if v.Title != "" {
			titles = append(titles, v.Title)
		}
	}

	vars := scoreVariables(score)
	vars["channelTitle"] = ch.Title
	vars["subscriberCount"] = ch.SubscriberCount
	vars["videoCount"] = ch.VideoCount
	vars["analyzedVideos"] = len(videos)
	vars["avgViews"] = float64(avg.Views)
	vars["avgCtr"] = avg.CTR
	vars["avgRetention"] = avg.AvgPercentageViewed
	vars["avgRetention15s"] = avg.RetentionAt15s
	vars["engagementRate"] = engagementRate(avg)
	vars["gaps"] = FormatGaps(gaps)
	vars["recentTitles"] = titles
	vars["recommendationCount"] = defaultRecommendationCount
	return vars
}

// VideoVariables builds the variable map for the video_analysis template.
func VideoVariables(v model.VideoRecord, score model.AlgorithmScore, gaps []model.PerformanceGap) map[string]any {
	m := v.Metrics
	vars := scoreVariables(score)
	vars["videoTitle"] = v.Title
	vars["videoDescription"] = truncate(v.Description, maxDescriptionRunes)
	vars["tags"] = v.Tags
	vars["durationSeconds"] = m.DurationSeconds
	vars["isShort"] = m.IsShort
	vars["views"] = m.Views
	vars["impressions"] = m.Impressions
	vars["ctr"] = m.CTR
	vars["trafficSource"] = trafficSource(m)
	vars["avgPercentageViewed"] = m.AvgPercentageViewed
	vars["retentionAt15s"] = m.RetentionAt15s
	vars["likes"] = m.Likes
	vars["comments"] = m.Comments
	vars["shares"] = m.Shares
	vars["subscribersGained"] = m.SubscribersGained
	vars["opportunities"] = score.Opportunities
	vars["gaps"] = FormatGaps(gaps)
	vars["recommendationCount"] = defaultRecommendationCount
	return vars
}

// TitleVariables builds the variable map for the title_optimization template.
func TitleVariables(v model.VideoRecord) map[string]any {
	return map[string]any{
		"currentTitle":  v.Title,
		"description":   truncate(v.Description, maxDescriptionRunes),
		"tags":          v.Tags,
		"ctr":           v.Metrics.CTR,
		"views":         v.Metrics.Views,
		"trafficSource": trafficSource(v.Metrics),
		"titleCount":    defaultTitleCount,
	}
}

// FormatGaps renders gaps as one bullet line each.
func FormatGaps(gaps []model.PerformanceGap) string {
	lines := make([]string, 0, len(gaps))
	for _, g := range gaps {
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s vs benchmark %s (%s%% below). %s",
			g.Severity, g.Metric, formatFloat(g.CurrentValue), formatFloat(g.BenchmarkValue), formatFloat(g.Gap), g.Description))
	}
	return strings.Join(lines, "\n")
}

func scoreVariables(score model.AlgorithmScore) map[string]any {
	return map[string]any{
		"overallScore":      score.Overall,
		"grade":             string(score.Grade),
		"ctrScore":          score.Breakdown.CTRScore,
		"watchTimeScore":    score.Breakdown.WatchTimeScore,
		"engagementScore":   score.Breakdown.EngagementScore,
		"satisfactionScore": score.Breakdown.SatisfactionScore,
		"strengths":         score.Strengths,
		"weaknesses":        score.Weaknesses,
	}
}

func engagementRate(m model.VideoMetrics) float64 {
	if m.Views <= 0 {
		return 0
	}
	return float64(m.Likes+m.Comments+m.Shares) / float64(m.Views) * 100
}

func trafficSource(m model.VideoMetrics) string {
	if m.MainTrafficSource == "" {
		return string(model.TrafficBrowse)
	}
	return string(m.MainTrafficSource)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
