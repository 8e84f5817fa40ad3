package prompt

// Template names.
const (
	ChannelAnalysis   = "channel_analysis"
	VideoAnalysis     = "video_analysis"
	TitleOptimization = "title_optimization"
)

// DefaultSystemPrompt frames the model as a YouTube growth analyst and pins
// the response format.
const DefaultSystemPrompt = `You are a YouTube growth strategist who understands how the recommendation algorithm weighs click-through rate, watch time, engagement and viewer satisfaction.
Base every recommendation on the metrics you are given. Be specific and actionable.
Respond with JSON only, without commentary before or after it.`

const recommendationFormat = `Respond with a JSON object of this shape:
{
  "recommendations": [
    {
      "title": "short imperative title",
      "category": "one of: Title Optimization, Thumbnail Optimization, Description SEO, Tags & Keywords, Content Structure, Hook Improvement, Retention Optimization, Engagement Boost, Community Building, Upload Schedule, Shorts Strategy, Playlist Strategy, Audience Targeting, Monetization",
      "priority": "critical | high | medium | low",
      "description": "one or two sentences",
      "detailedDescription": "numbered steps written as 1) step (timeline) 2) step (timeline)",
      "effortLevel": "low | medium | high",
      "timeline": {"implementation": "e.g. 1 week", "results": "e.g. 2-4 weeks"},
      "successMetric": {
        "metric": "metric name",
        "current": 0,
        "target": 0,
        "timeframe": "e.g. 30 days",
        "confidenceLevel": "Low | Medium | High",
        "measurementMethod": "how to measure it in YouTube Studio"
      },
      "reasoning": "why this matters for the algorithm"
    }
  ]
}
Return up to {{recommendationCount}} recommendations, most impactful first.`

var templates = map[string]string{
	ChannelAnalysis: `{{systemPrompt}}

Analyze the YouTube channel "{{channelTitle}}" ({{subscriberCount}} subscribers, {{videoCount}} videos).
The analysis covers the {{analyzedVideos}} most recent videos.

Algorithm score: {{overallScore}}/100 (grade {{grade}})
- CTR: {{ctrScore}}/25
- Watch time: {{watchTimeScore}}/35
- Engagement: {{engagementScore}}/25
- Satisfaction: {{satisfactionScore}}/15

Average metrics per video:
- Views: {{avgViews}}
- CTR: {{avgCtr}}%
- Average percentage viewed: {{avgRetention}}%
- Retention at 15 seconds: {{avgRetention15s}}%
- Engagement rate: {{engagementRate}}%
{{#if strengths}}
Strengths: {{strengths}}
{{/if}}{{#if weaknesses}}
Weaknesses: {{weaknesses}}
{{/if}}{{#if gaps}}
Performance gaps against benchmarks:
{{gaps}}
{{/if}}{{#if recentTitles}}
Recent video titles: {{recentTitles}}
{{/if}}
Focus on channel-wide strategy: content structure, upload schedule, playlists, Shorts, community and audience targeting.

` + recommendationFormat,

	VideoAnalysis: `{{systemPrompt}}

Analyze the YouTube video "{{videoTitle}}".
{{#if videoDescription}}
Description: {{videoDescription}}
{{/if}}{{#if tags}}
Tags: {{tags}}
{{/if}}
Duration: {{durationSeconds}} seconds{{#if isShort}} (Short){{/if}}
Views: {{views}}, impressions: {{impressions}}
CTR: {{ctr}}% (main traffic source: {{trafficSource}})
Average percentage viewed: {{avgPercentageViewed}}%
Retention at 15 seconds: {{retentionAt15s}}%
Likes: {{likes}}, comments: {{comments}}, shares: {{shares}}, subscribers gained: {{subscribersGained}}

Algorithm score: {{overallScore}}/100 (grade {{grade}})
- CTR: {{ctrScore}}/25
- Watch time: {{watchTimeScore}}/35
- Engagement: {{engagementScore}}/25
- Satisfaction: {{satisfactionScore}}/15
{{#if strengths}}
Strengths: {{strengths}}
{{/if}}{{#if weaknesses}}
Weaknesses: {{weaknesses}}
{{/if}}{{#if opportunities}}
Opportunities: {{opportunities}}
{{/if}}{{#if gaps}}
Performance gaps against benchmarks:
{{gaps}}
{{/if}}
Focus on this video: title, thumbnail, hook, retention, description and engagement.

` + recommendationFormat,

	TitleOptimization: `{{systemPrompt}}

Write {{titleCount}} alternative titles for this YouTube video.

Current title: "{{currentTitle}}"
{{#if description}}
Description: {{description}}
{{/if}}{{#if tags}}
Tags: {{tags}}
{{/if}}
Current CTR: {{ctr}}% with {{views}} views (main traffic source: {{trafficSource}})

Each title must stay under 70 characters, front-load the main keyword and create curiosity without clickbait.
Respond with JSON: {"titles": ["...", "..."]}`,
}

// Catalog is a read-only set of named templates.
type Catalog struct {
	templates map[string]string
}

// DefaultCatalog returns the built-in templates.
func DefaultCatalog() *Catalog {
	return &Catalog{templates: templates}
}

// NewCatalog returns a catalog over the built-in templates with overrides
// applied on top.
func NewCatalog(overrides map[string]string) *Catalog {
	merged := make(map[string]string, len(templates)+len(overrides))
	for k, v := range templates {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &Catalog{templates: merged}
}

// Get returns the template registered under name.
func (c *Catalog) Get(name string) (string, bool) {
	t, ok := c.templates[name]
	return t, ok
}
