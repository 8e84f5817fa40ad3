package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
)

// Component ranges.
const (
	maxCTRScore          = 25.0
	maxWatchTimeScore    = 35.0
	maxEngagementScore   = 25.0
	maxSatisfactionScore = 15.0

	retentionPoints = 20.0
	durationPoints  = 10.0
	hookPoints      = 5.0
)

// Benchmarks.
const (
	ctrBenchmarkSearch   = 10.0
	ctrBenchmarkBrowse   = 5.0
	ctrBonusThreshold    = 1.5
	ctrBonus             = 1.10
	retentionTarget      = 50.0
	durationTargetCap    = 480.0
	hookTarget           = 80.0
	engagementTarget     = 5.0
	communityRatioBonus  = 0.10
	subsPerThousandBonus = 2.0
	engagementBonus      = 1.05
	neutralSatisfaction  = 10.0
	negativeSignalFloor  = 10.0
	negativeSignalWeight = 0.5

	strengthRatio = 0.8
	weaknessRatio = 0.5
)

// Opportunity heuristics.
const (
	thumbnailBandLow   = 10.0
	thumbnailBandHigh  = 18.0
	weakHookRetention  = 70.0
	lowCommentRatio    = 0.05
	shortsCandidateDur = 600.0
)

const noDataMessage = "No data available for scoring"

// ScoringService computes algorithm performance scores. It holds no state and
// is safe for concurrent use.
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// ScoreVideo scores a single video's metrics.
func (s *ScoringService) ScoreVideo(m model.VideoMetrics) model.AlgorithmScore {
	b := model.ScoreBreakdown{
		CTRScore:          round2(CTRScore(m)),
		WatchTimeScore:    round2(WatchTimeScore(m)),
		EngagementScore:   round2(EngagementScore(m)),
		SatisfactionScore: round2(SatisfactionScore(m)),
	}
	score := newScore(b)
	score.Opportunities = opportunities(m, b)
	return score
}

// ScoreChannel averages per-video sub-scores. Strengths and weaknesses are
// derived from the averages; opportunities are left empty.
func (s *ScoringService) ScoreChannel(videos []model.VideoMetrics) model.AlgorithmScore {
	if len(videos) == 0 {
		return model.AlgorithmScore{
			Grade:         model.GradeF,
			Strengths:     []string{},
			Weaknesses:    []string{noDataMessage},
			Opportunities: []string{},
		}
	}

	var sum model.ScoreBreakdown
	for _, v := range videos {
		vs := s.ScoreVideo(v)
		sum.CTRScore += vs.Breakdown.CTRScore
		sum.WatchTimeScore += vs.Breakdown.WatchTimeScore
		sum.EngagementScore += vs.Breakdown.EngagementScore
		sum.SatisfactionScore += vs.Breakdown.SatisfactionScore
	}
	n := float64(len(videos))
	avg := model.ScoreBreakdown{
		CTRScore:          round2(sum.CTRScore / n),
		WatchTimeScore:    round2(sum.WatchTimeScore / n),
		EngagementScore:   round2(sum.EngagementScore / n),
		SatisfactionScore: round2(sum.SatisfactionScore / n),
	}
	score := newScore(avg)
	score.Opportunities = []string{}
	return score
}

func newScore(b model.ScoreBreakdown) model.AlgorithmScore {
	overall := clamp(round2(b.Sum()), 0, 100)
	strengths, weaknesses := assess(b)
	return model.AlgorithmScore{
		Overall:    overall,
		Breakdown:  b,
		Grade:      GradeFor(overall),
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}
}

// CTRScore returns the click-through component (0-25).
func CTRScore(m model.VideoMetrics) float64 {
	benchmark := ctrBenchmarkBrowse
	if m.MainTrafficSource == model.TrafficSearch {
		benchmark = ctrBenchmarkSearch
	}
	score := math.Min(m.CTR/benchmark*maxCTRScore, maxCTRScore)
	if m.CTR > ctrBonusThreshold*benchmark {
		score = math.Min(score*ctrBonus, maxCTRScore)
	}
	return clamp(score, 0, maxCTRScore)
}

// WatchTimeScore returns the watch time component (0-35): average retention,
// absolute time watched and retention through the first 15 seconds.
func WatchTimeScore(m model.VideoMetrics) float64 {
	retention := capped(m.AvgPercentageViewed, retentionTarget, retentionPoints)
	duration := capped(m.AvgViewDuration, math.Min(m.DurationSeconds, durationTargetCap), durationPoints)
	hook := capped(m.RetentionAt15s, hookTarget, hookPoints)
	return clamp(retention+duration+hook, 0, maxWatchTimeScore)
}

// EngagementScore returns the engagement component (0-25). The community
// and subscriber bonuses are independent and each clamped after applying.
func EngagementScore(m model.VideoMetrics) float64 {
	rate := engagementRate(m)
	score := clamp(rate/engagementTarget*maxEngagementScore, 0, maxEngagementScore)
	if ratio(float64(m.Comments), float64(m.Likes)) > communityRatioBonus {
		score = clamp(score*engagementBonus, 0, maxEngagementScore)
	}
	if subscribersPerThousand(m) > subsPerThousandBonus {
		score = clamp(score*engagementBonus, 0, maxEngagementScore)
	}
	return score
}

// SatisfactionScore returns the satisfaction component (0-15). Without any
// satisfaction signal the score is neutral.
func SatisfactionScore(m model.VideoMetrics) float64 {
	if m.SatisfactionScore == nil && m.NegativeSignalRate == nil {
		return neutralSatisfaction
	}
	score := maxSatisfactionScore
	if m.SatisfactionScore != nil {
		score = *m.SatisfactionScore / 100 * maxSatisfactionScore
	}
	if m.NegativeSignalRate != nil && *m.NegativeSignalRate > negativeSignalFloor {
		score -= (*m.NegativeSignalRate - negativeSignalFloor) * negativeSignalWeight
	}
	return clamp(score, 0, maxSatisfactionScore)
}

// GradeFor maps an overall score to a letter grade.
func GradeFor(overall float64) model.Grade {
	switch {
	case overall >= 90:
		return model.GradeAPlus
	case overall >= 80:
		return model.GradeA
	case overall >= 70:
		return model.GradeBPlus
	case overall >= 60:
		return model.GradeB
	case overall >= 50:
		return model.GradeCPlus
	case overall >= 40:
		return model.GradeC
	case overall >= 30:
		return model.GradeD
	default:
		return model.GradeF
	}
}

type component struct {
	value, max         float64
	strength, weakness string
}

func assess(b model.ScoreBreakdown) (strengths, weaknesses []string) {
	components := []component{
		{b.CTRScore, maxCTRScore,
			"Strong click-through rate: titles and thumbnails earn the click",
			"Low click-through rate: titles and thumbnails are not converting impressions"},
		{b.WatchTimeScore, maxWatchTimeScore,
			"Excellent watch time: viewers stay for most of the video",
			"Weak watch time: viewers leave early"},
		{b.EngagementScore, maxEngagementScore,
			"High engagement: viewers like, comment and share",
			"Low engagement: few viewers interact with the video"},
		{b.SatisfactionScore, maxSatisfactionScore,
			"Strong viewer satisfaction signals",
			"Poor viewer satisfaction: negative feedback is hurting reach"},
	}

	strengths = []string{}
	weaknesses = []string{}
	for _, c := range components {
		switch {
		case c.value >= c.max*strengthRatio:
			strengths = append(strengths, c.strength)
		case c.value < c.max*weaknessRatio:
			weaknesses = append(weaknesses, c.weakness)
		}
	}
	return strengths, weaknesses
}

func opportunities(m model.VideoMetrics, b model.ScoreBreakdown) []string {
	out := []string{}
	if b.CTRScore >= thumbnailBandLow && b.CTRScore < thumbnailBandHigh {
		out = append(out, "CTR is close to benchmark: A/B test thumbnails to push it over")
	}
	if m.RetentionAt15s < weakHookRetention {
		out = append(out, fmt.Sprintf("Only %.0f%% of viewers stay past 15 seconds: tighten the hook", m.RetentionAt15s))
	}
	if m.Likes > 0 && ratio(float64(m.Comments), float64(m.Likes)) < lowCommentRatio {
		out = append(out, "Few comments relative to likes: add a conversation starter or pinned question")
	}
	if !m.IsShort && m.DurationSeconds > shortsCandidateDur {
		out = append(out, "Long-form video: cut highlights into Shorts to reach new viewers")
	}
	return out
}

// Gap benchmarks.
const (
	severityCritical = 50.0
	severityHigh     = 30.0
	severityMedium   = 15.0
)

// AnalyzeGaps lists the metrics of m that trail their benchmark, largest gap
// first. Engagement and subscriber gaps need views to be meaningful and are
// skipped for videos without views.
func (s *ScoringService) AnalyzeGaps(m model.VideoMetrics) []model.PerformanceGap {
	ctrBenchmark := ctrBenchmarkBrowse
	if m.MainTrafficSource == model.TrafficSearch {
		ctrBenchmark = ctrBenchmarkSearch
	}

	type check struct {
		category, metric, description string
		current, benchmark            float64
	}
	checks := []check{
		{"ctr", "Click-through rate", "Impressions are not converting into views", m.CTR, ctrBenchmark},
		{"retention", "Average percentage viewed", "Viewers drop off before the midpoint", m.AvgPercentageViewed, retentionTarget},
		{"hook", "Retention at 15 seconds", "The opening loses viewers", m.RetentionAt15s, hookTarget},
	}
	if m.Views > 0 {
		checks = append(checks,
			check{"engagement", "Engagement rate", "Viewers rarely like, comment or share", engagementRate(m), engagementTarget},
			check{"growth", "Subscribers per 1000 views", "Viewers are not converting into subscribers", subscribersPerThousand(m), subsPerThousandBonus},
		)
	}

	gaps := []model.PerformanceGap{}
	for _, c := range checks {
		if c.current >= c.benchmark {
			continue
		}
		gap := round2((c.benchmark - c.current) / c.benchmark * 100)
		gaps = append(gaps, model.PerformanceGap{
			Category:       c.category,
			Metric:         c.metric,
			CurrentValue:   round2(c.current),
			BenchmarkValue: c.benchmark,
			Gap:            gap,
			Severity:       SeverityFor(gap),
			Description:    c.description,
		})
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].Gap > gaps[j].Gap })
	return gaps
}

// SeverityFor maps a gap percentage to a severity.
func SeverityFor(gap float64) model.Severity {
	switch {
	case gap >= severityCritical:
		return model.SeverityCritical
	case gap >= severityHigh:
		return model.SeverityHigh
	case gap >= severityMedium:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// AverageMetrics returns per-video averages. The traffic source is the most
// common one (browse on ties); satisfaction inputs are averaged over the
// videos that report them.
func AverageMetrics(videos []model.VideoMetrics) model.VideoMetrics {
	if len(videos) == 0 {
		return model.VideoMetrics{}
	}

	var (
		views, impressions, likes, comments, shares, subs int64
		ctr, pct, avd, dur, r15                           float64
		satSum, negSum                                    float64
		satN, negN, searchN                               int
	)
	for _, v := range videos {
		views += v.Views
		impressions += v.Impressions
		likes += v.Likes
		comments += v.Comments
		shares += v.Shares
		subs += v.SubscribersGained
		ctr += v.CTR
		pct += v.AvgPercentageViewed
		avd += v.AvgViewDuration
		dur += v.DurationSeconds
		r15 += v.RetentionAt15s
		if v.SatisfactionScore != nil {
			satSum += *v.SatisfactionScore
			satN++
		}
		if v.NegativeSignalRate != nil {
			negSum += *v.NegativeSignalRate
			negN++
		}
		if v.MainTrafficSource == model.TrafficSearch {
			searchN++
		}
	}

	n := float64(len(videos))
	avgInt := func(total int64) int64 { return int64(math.Round(float64(total) / n)) }

	out := model.VideoMetrics{
		Views:               avgInt(views),
		Impressions:         avgInt(impressions),
		CTR:                 round2(ctr / n),
		MainTrafficSource:   model.TrafficBrowse,
		AvgPercentageViewed: round2(pct / n),
		AvgViewDuration:     round2(avd / n),
		DurationSeconds:     round2(dur / n),
		RetentionAt15s:      round2(r15 / n),
		Likes:               avgInt(likes),
		Comments:            avgInt(comments),
		Shares:              avgInt(shares),
		SubscribersGained:   avgInt(subs),
	}
	if searchN*2 > len(videos) {
		out.MainTrafficSource = model.TrafficSearch
	}
	if satN > 0 {
		v := round2(satSum / float64(satN))
		out.SatisfactionScore = &v
	}
	if negN > 0 {
		v := round2(negSum / float64(negN))
		out.NegativeSignalRate = &v
	}
	return out
}

func engagementRate(m model.VideoMetrics) float64 {
	return ratio(float64(m.Likes+m.Comments+m.Shares), float64(m.Views)) * 100
}

func subscribersPerThousand(m model.VideoMetrics) float64 {
	return ratio(float64(m.SubscribersGained), float64(m.Views)/1000)
}

// capped scales actual/target onto [0, points]. A non-positive target yields 0.
func capped(actual, target, points float64) float64 {
	if target <= 0 {
		return 0
	}
	return clamp(actual/target*points, 0, points)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
