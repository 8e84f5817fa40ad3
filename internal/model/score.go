package model

// Grade is the letter grade derived from an overall score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// ScoreBreakdown holds the four sub-scores. Ranges: CTR 0-25, watch time
// 0-35, engagement 0-25, satisfaction 0-15.
type ScoreBreakdown struct {
	CTRScore          float64 `json:"ctrScore"`
	WatchTimeScore    float64 `json:"watchTimeScore"`
	EngagementScore   float64 `json:"engagementScore"`
	SatisfactionScore float64 `json:"satisfactionScore"`
}

// Sum returns the total of all sub-scores.
func (b ScoreBreakdown) Sum() float64 {
	return b.CTRScore + b.WatchTimeScore + b.EngagementScore + b.SatisfactionScore
}

// AlgorithmScore is the result of scoring a video or channel.
type AlgorithmScore struct {
	Overall       float64        `json:"overall"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Grade         Grade          `json:"grade"`
	Strengths     []string       `json:"strengths"`
	Weaknesses    []string       `json:"weaknesses"`
	Opportunities []string       `json:"opportunities"`
}

// Severity ranks how far a metric sits below its benchmark.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// PerformanceGap describes one metric that trails its benchmark.
type PerformanceGap struct {
	Category       string   `json:"category"`
	Metric         string   `json:"metric"`
	CurrentValue   float64  `json:"currentValue"`
	BenchmarkValue float64  `json:"benchmarkValue"`
	Gap            float64  `json:"gap"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
}
