// Package grammar extracts structure from free-form model output.
//
// Model output drifts between versions far more often than the JSON envelope
// breaks, so every pattern accepted here is listed below and covered by a
// test. Changing a pattern is a contract change.
//
// Action items (version 1):
//
//	item     = marker text [ "(" timeline ")" ] [ "." | ";" | "," ]
//	marker   = digit{1,2} ")"     preceded by start of input or whitespace,
//	                              and not inside an open parenthesis
//	text     = everything up to the next marker or end of input
//
// Titles (version 1):
//
//	{"titles": ["..", ..]} | {"titles": [{"title": ".."}, ..]} | ["..", ..]
//	otherwise one title per line, with list markers ("1.", "1)", "-", "*", "•"),
//	surrounding quotes and markdown emphasis removed.
package grammar

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ActionItem is one numbered step extracted from a description.
type ActionItem struct {
	Order    int
	Text     string
	Timeline string
}

var (
	markerRe   = regexp.MustCompile(`(?:^|\s)(\d{1,2})\)`)
	timelineRe = regexp.MustCompile(`(?s)^(.*?)\s*\(([^()]*)\)\s*[.;,]?\s*$`)
	fenceRe    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	listLineRe = regexp.MustCompile(`^\s*(?:\d{1,2}[.)]|[-*•])\s+`)
)

// ParseActionItems returns the numbered items found in text, in the order they
// appear. Orders are taken from the markers verbatim; duplicates are kept.
func ParseActionItems(text string) []ActionItem {
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)

	type marker struct {
		order      int
		start, end int
	}
	markers := make([]marker, 0, len(matches))
	for _, m := range matches {
		// m[2]:m[3] is the digit group; the marker starts at the digits so a
		// leading whitespace byte stays with the previous item's text.
		if parenDepth(text[:m[2]]) > 0 {
			continue
		}
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n == 0 {
			continue
		}
		markers = append(markers, marker{order: n, start: m[2], end: m[1]})
	}

	items := make([]ActionItem, 0, len(markers))
	for i, mk := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		segment := strings.TrimSpace(text[mk.end:end])
		if segment == "" {
			continue
		}

		item := ActionItem{Order: mk.order, Text: strings.TrimRight(segment, ".;, ")}
		if sub := timelineRe.FindStringSubmatch(segment); sub != nil && strings.TrimSpace(sub[1]) != "" {
			item.Text = strings.TrimSpace(sub[1])
			item.Timeline = strings.TrimSpace(sub[2])
		}
		items = append(items, item)
	}
	return items
}

// parenDepth counts unbalanced opening parentheses in s.
func parenDepth(s string) int {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth
}

// SplitAction splits "Action: details" into its two halves. Text without a
// colon separator is returned as both action and details.
func SplitAction(text string) (action, details string) {
	if i := strings.Index(text, ": "); i > 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+2:])
	}
	return text, text
}

// StripCodeFences removes a surrounding markdown code block (```json ... ```)
// and trims whitespace.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if sub := fenceRe.FindStringSubmatch(s); sub != nil {
		return strings.TrimSpace(sub[1])
	}
	return s
}

// ParseTitles extracts candidate titles from model output. JSON is tried
// first, then line-oriented lists.
func ParseTitles(output string) []string {
	cleaned := StripCodeFences(output)
	if cleaned == "" {
		return []string{}
	}

	if titles, ok := parseJSONTitles(cleaned); ok {
		return dedupe(titles)
	}

	lines := strings.Split(cleaned, "\n")
	var listed, plain []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasSuffix(trimmed, ":") {
			continue
		}
		if listLineRe.MatchString(trimmed) {
			listed = append(listed, cleanTitle(listLineRe.ReplaceAllString(trimmed, "")))
			continue
		}
		plain = append(plain, cleanTitle(trimmed))
	}

	if len(listed) > 0 {
		return dedupe(listed)
	}
	return dedupe(plain)
}

func parseJSONTitles(s string) ([]string, bool) {
	var asList []string
	if err := json.Unmarshal([]byte(s), &asList); err == nil {
		return asList, true
	}

	var envelope struct {
		Titles json.RawMessage `json:"titles"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err != nil || len(envelope.Titles) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(envelope.Titles, &asList); err == nil {
		return asList, true
	}

	var objects []struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(envelope.Titles, &objects); err != nil {
		return nil, false
	}
	titles := make([]string, 0, len(objects))
	for _, o := range objects {
		titles = append(titles, o.Title)
	}
	return titles, true
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”")
	return strings.TrimSpace(s)
}

func dedupe(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		t = cleanTitle(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
