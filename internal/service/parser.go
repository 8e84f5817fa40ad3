package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/metrics"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/pkg/grammar"
)

// Fallback recommendation constants.
const (
	fallbackDescriptionRunes = 500
	fallbackEllipsis         = "..."
	fallbackTimeline         = "1-2 weeks"
	fallbackConfidence       = 0.75
	defaultConfidence        = 0.7
)

var confidenceLevels = map[string]float64{
	"low":    0.5,
	"medium": 0.7,
	"high":   0.9,
}

// categoryLabels maps normalized labels to categories. Every canonical tag
// maps to itself; the rest are labels seen in model output.
var categoryLabels = func() map[string]model.Category {
	m := map[string]model.Category{
		"title":                    model.CategoryTitleOptimization,
		"titles":                   model.CategoryTitleOptimization,
		"thumbnail":                model.CategoryThumbnailOptimization,
		"thumbnails":               model.CategoryThumbnailOptimization,
		"thumbnail_design":         model.CategoryThumbnailOptimization,
		"description":              model.CategoryDescriptionSEO,
		"seo":                      model.CategoryDescriptionSEO,
		"description_optimization": model.CategoryDescriptionSEO,
		"tags":                     model.CategoryTagsKeywords,
		"keywords":                 model.CategoryTagsKeywords,
		"tags_and_keywords":        model.CategoryTagsKeywords,
		"content":                  model.CategoryContentStructure,
		"content_strategy":         model.CategoryContentStructure,
		"hook":                     model.CategoryHookImprovement,
		"hooks":                    model.CategoryHookImprovement,
		"intro":                    model.CategoryHookImprovement,
		"retention":                model.CategoryRetentionOptimization,
		"audience_retention":       model.CategoryRetentionOptimization,
		"watch_time":               model.CategoryRetentionOptimization,
		"engagement":               model.CategoryEngagementBoost,
		"engagement_optimization":  model.CategoryEngagementBoost,
		"community":                model.CategoryCommunityBuilding,
		"community_engagement":     model.CategoryCommunityBuilding,
		"schedule":                 model.CategoryUploadSchedule,
		"upload_timing":            model.CategoryUploadSchedule,
		"posting_schedule":         model.CategoryUploadSchedule,
		"shorts":                   model.CategoryShortsStrategy,
		"youtube_shorts":           model.CategoryShortsStrategy,
		"playlists":                model.CategoryPlaylistStrategy,
		"playlist":                 model.CategoryPlaylistStrategy,
		"audience":                 model.CategoryAudienceTargeting,
		"targeting":                model.CategoryAudienceTargeting,
		"revenue":                  model.CategoryMonetization,
		"monetisation":             model.CategoryMonetization,
	}
	for _, c := range model.Categories {
		m[string(c)] = c
	}
	return m
}()

var labelSeparatorRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeLabel lower-cases a label and collapses every run of separators
// to a single underscore: "Tags & Keywords" -> "tags_keywords".
func normalizeLabel(label string) string {
	s := labelSeparatorRe.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(s, "_")
}

// LookupCategory maps a free-text category label to a category. Unknown
// labels fall back to content_structure with ok == false.
func LookupCategory(label string) (category model.Category, ok bool) {
	key := normalizeLabel(label)
	if c, found := categoryLabels[key]; found {
		return c, true
	}
	// "Tags and Keywords" style labels.
	if c, found := categoryLabels[strings.ReplaceAll(key, "_and_", "_")]; found {
		return c, true
	}
	return model.CategoryContentStructure, false
}

func normalizePriority(s string) model.Priority {
	switch p := model.Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return p
	}
	return model.PriorityMedium
}

func normalizeEffort(s string) model.Effort {
	switch e := model.Effort(strings.ToLower(strings.TrimSpace(s))); e {
	case model.EffortLow, model.EffortMedium, model.EffortHigh:
		return e
	}
	return model.EffortMedium
}

// ConfidenceFor maps a Low/Medium/High label to a confidence value.
func ConfidenceFor(level string) float64 {
	if c, ok := confidenceLevels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return c
	}
	return defaultConfidence
}

// Improvement returns the relative change from current to target in percent,
// or 0 when current is 0.
func Improvement(current, target float64) float64 {
	if current == 0 {
		return 0
	}
	return round2((target - current) / current * 100)
}

// flexFloat accepts JSON numbers and numeric strings such as "4.5%" or
// "1,200". Anything else decodes as 0.
type flexFloat float64

var leadingNumberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = 0
		return nil
	}
	m := leadingNumberRe.FindString(strings.ReplaceAll(s, ",", ""))
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		v = 0
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts JSON strings. Any other JSON value decodes as "" so a
// drifting field falls back to its default instead of failing the element.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = ""
		return nil
	}
	*f = flexString(s)
	return nil
}

// rawTimeline accepts {"implementation","results"} or a bare string, which
// is taken as the implementation timeline.
type rawTimeline struct {
	Implementation flexString `json:"implementation"`
	Results        flexString `json:"results"`
}

func (t *rawTimeline) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = rawTimeline{Implementation: flexString(s)}
		return nil
	}
	type plain rawTimeline
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*t = rawTimeline{}
		return nil
	}
	*t = rawTimeline(p)
	return nil
}

type rawSuccessMetric struct {
	Metric            flexString `json:"metric"`
	Current           flexFloat  `json:"current"`
	Target            flexFloat  `json:"target"`
	Timeframe         flexString `json:"timeframe"`
	ConfidenceLevel   flexString `json:"confidenceLevel"`
	MeasurementMethod flexString `json:"measurementMethod"`
}

func (m *rawSuccessMetric) UnmarshalJSON(b []byte) error {
	type plain rawSuccessMetric
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*m = rawSuccessMetric{}
		return nil
	}
	*m = rawSuccessMetric(p)
	return nil
}

type rawRecommendation struct {
	Title               flexString       `json:"title"`
	Category            flexString       `json:"category"`
	Priority            flexString       `json:"priority"`
	Description         flexString       `json:"description"`
	DetailedDescription flexString       `json:"detailedDescription"`
	EffortLevel         flexString       `json:"effortLevel"`
	Timeline            rawTimeline      `json:"timeline"`
	SuccessMetric       rawSuccessMetric `json:"successMetric"`
	Reasoning           flexString       `json:"reasoning"`
}

type rawEnvelope struct {
	Recommendations *[]json.RawMessage `json:"recommendations"`
}

// RecommendationParser turns model output into recommendations. It never
// fails: output that is not a recommendations envelope becomes a single
// catch-all recommendation.
type RecommendationParser struct{}

func NewRecommendationParser() *RecommendationParser {
	return &RecommendationParser{}
}

// Parse parses output with CreatedAt set to the current time.
func (p *RecommendationParser) Parse(output, targetID string, targetType model.TargetType, generatedBy string) []model.Recommendation {
	return p.ParseAt(output, targetID, targetType, generatedBy, time.Now().UTC())
}

// ParseAt parses output, stamping every recommendation with createdAt.
// Only empty output yields an empty list.
func (p *RecommendationParser) ParseAt(output, targetID string, targetType model.TargetType, generatedBy string, createdAt time.Time) []model.Recommendation {
	if output == "" {
		metrics.ParsePath.WithLabelValues("empty").Inc()
		return []model.Recommendation{}
	}

	base := model.Recommendation{
		TargetID:    targetID,
		TargetType:  targetType,
		GeneratedBy: generatedBy,
		Status:      model.StatusPending,
		CreatedAt:   createdAt,
	}

	raws, ok := decodeEnvelope(output)
	if !ok {
		log.Warn().
			Str("target_id", targetID).
			Int("output_length", len(output)).
			Msg("model output is not a recommendations envelope, using fallback")
		metrics.ParsePath.WithLabelValues("fallback").Inc()
		return []model.Recommendation{fallbackRecommendation(output, base)}
	}

	metrics.ParsePath.WithLabelValues("json").Inc()
	recs := make([]model.Recommendation, 0, len(raws))
	for i, raw := range raws {
		recs = append(recs, mapRecommendation(raw, i, base))
	}
	return recs
}

// decodeEnvelope returns the recommendations array when output (optionally
// code-fenced, optionally surrounded by prose) is a JSON object carrying a
// non-empty one. Elements are decoded one at a time; an element that is
// neither an object nor a string is skipped.
func decodeEnvelope(output string) ([]rawRecommendation, bool) {
	cleaned := grammar.StripCodeFences(output)
	candidates := []string{cleaned}
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start > 0 && end > start {
		candidates = append(candidates, cleaned[start:end+1])
	}

	for _, c := range candidates {
		var env rawEnvelope
		if err := json.Unmarshal([]byte(c), &env); err != nil {
			continue
		}
		if env.Recommendations == nil {
			continue
		}
		raws := decodeElements(*env.Recommendations)
		if len(raws) == 0 {
			continue
		}
		return raws, true
	}
	return nil, false
}

func decodeElements(elems []json.RawMessage) []rawRecommendation {
	raws := make([]rawRecommendation, 0, len(elems))
	for i, elem := range elems {
		trimmed := strings.TrimSpace(string(elem))
		switch {
		case strings.HasPrefix(trimmed, "{"):
			var raw rawRecommendation
			if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
				log.Warn().Err(err).Int("index", i).Msg("skipping undecodable recommendation")
				continue
			}
			raws = append(raws, raw)
		case strings.HasPrefix(trimmed, `"`):
			var text string
			if err := json.Unmarshal([]byte(trimmed), &text); err != nil || strings.TrimSpace(text) == "" {
				continue
			}
			raws = append(raws, rawRecommendation{Description: flexString(text)})
		default:
			log.Warn().Int("index", i).Msg("skipping recommendation that is not an object")
		}
	}
	return raws
}

func mapRecommendation(raw rawRecommendation, index int, base model.Recommendation) model.Recommendation {
	category, known := LookupCategory(string(raw.Category))
	if !known {
		log.Warn().Str("label", string(raw.Category)).Str("fallback", string(category)).Msg("unknown recommendation category")
		metrics.CategoryFallbacks.Inc()
	}

	confidence := ConfidenceFor(string(raw.SuccessMetric.ConfidenceLevel))
	current := float64(raw.SuccessMetric.Current)
	target := float64(raw.SuccessMetric.Target)

	description := strings.TrimSpace(string(raw.Description))
	if description == "" {
		description = strings.TrimSpace(string(raw.DetailedDescription))
	}
	title := strings.TrimSpace(string(raw.Title))
	if title == "" {
		title = "Recommendation " + strconv.Itoa(index+1)
	}
	timeframe := string(raw.SuccessMetric.Timeframe)
	if timeframe == "" {
		timeframe = string(raw.Timeline.Results)
	}

	rec := base
	rec.ID = uuid.New()
	rec.Category = category
	rec.Priority = normalizePriority(string(raw.Priority))
	rec.Title = title
	rec.Description = description
	rec.ActionItems = actionItems(raw, title, description)
	rec.ExpectedImpact = model.ImpactEstimate{
		Metric:            string(raw.SuccessMetric.Metric),
		CurrentValue:      current,
		ProjectedValue:    target,
		Improvement:       Improvement(current, target),
		Confidence:        confidence,
		Timeframe:         timeframe,
		MeasurementMethod: string(raw.SuccessMetric.MeasurementMethod),
	}
	rec.Confidence = confidence
	rec.Reasoning = string(raw.Reasoning)
	return rec
}

// actionItems extracts numbered steps from the detailed description. The
// single effortLevel applies to every step.
func actionItems(raw rawRecommendation, title, description string) []model.ActionItem {
	effort := normalizeEffort(string(raw.EffortLevel))
	source := string(raw.DetailedDescription)
	if strings.TrimSpace(source) == "" {
		source = description
	}

	parsed := grammar.ParseActionItems(source)
	if len(parsed) == 0 {
		return []model.ActionItem{{
			Action:   title,
			Details:  strings.TrimSpace(source),
			Effort:   effort,
			Timeline: string(raw.Timeline.Implementation),
			Order:    1,
		}}
	}

	items := make([]model.ActionItem, 0, len(parsed))
	for _, it := range parsed {
		action, details := grammar.SplitAction(it.Text)
		timeline := it.Timeline
		if timeline == "" {
			timeline = string(raw.Timeline.Implementation)
		}
		items = append(items, model.ActionItem{
			Action:   action,
			Details:  details,
			Effort:   effort,
			Timeline: timeline,
			Order:    it.Order,
		})
	}
	return items
}

func fallbackRecommendation(output string, base model.Recommendation) model.Recommendation {
	text := strings.TrimSpace(output)
	runes := []rune(text)
	if len(runes) > fallbackDescriptionRunes {
		runes = runes[:fallbackDescriptionRunes]
	}

	rec := base
	rec.ID = uuid.New()
	rec.Category = model.CategoryContentStructure
	rec.Priority = model.PriorityHigh
	rec.Title = "Review AI analysis"
	rec.Description = string(runes) + fallbackEllipsis
	rec.ActionItems = []model.ActionItem{{
		Action:   "Review and apply the analysis",
		Details:  text,
		Effort:   model.EffortHigh,
		Timeline: fallbackTimeline,
		Order:    1,
	}}
	rec.ExpectedImpact = model.ImpactEstimate{
		Metric:     "Overall algorithm score",
		Confidence: fallbackConfidence,
		Timeframe:  fallbackTimeline,
	}
	rec.Confidence = fallbackConfidence
	return rec
}
