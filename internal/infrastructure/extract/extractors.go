package extract

import (
	"strings"
)

// KeyExtractor is one API-key sub-pass.
type KeyExtractor struct {
	Name  string
	Score float64
	Find  func(text string) []Span
}

// KeyExtractors run in this order; the first extractor with any match decides
// the record's api_key, taking its leftmost match.
var KeyExtractors = []KeyExtractor{
	{Name: "secret_token", Score: 0.95, Find: FindSecretKeys},
	{Name: "assignment", Score: 0.9, Find: FindAssignedKeys},
	{Name: "bearer", Score: 0.9, Find: func(text string) []Span { return findGroup(BearerPattern, text, 1) }},
	{Name: "bare_line", Score: 0.7, Find: findBareKeyLines},
}

// findBareKeyLines treats a line made only of 32-100 token characters as a key.
func findBareKeyLines(text string) []Span {
	var spans []Span
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(strings.ToLower(trimmed), "http") && bareKeyLine.MatchString(trimmed) {
			start := offset + strings.Index(line, trimmed)
			spans = append(spans, Span{Value: trimmed, Start: start, End: start + len(trimmed)})
		}
		offset += len(line)
	}
	return spans
}

// ExtractKey returns the api_key by running KeyExtractors in order.
func ExtractKey(text string) string {
	for _, ex := range KeyExtractors {
		if spans := ex.Find(text); len(spans) > 0 {
			return spans[0].Value
		}
	}
	return ""
}

// ExtractURL returns the leftmost URL, or "".
func ExtractURL(text string) string {
	if spans := FindURLs(text); len(spans) > 0 {
		return spans[0].Value
	}
	return ""
}

// ScoreURL rates how likely a URL is an API base URL.
func ScoreURL(raw string) float64 {
	score := 0.4
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "/v1") {
		score += 0.3
	}
	if strings.HasPrefix(lower, "https://") {
		score += 0.1
	}
	for _, d := range []string{"openai.com", "anthropic.com", "googleapis.com", "deepseek", "zhipuai", "moonshot"} {
		if strings.Contains(lower, d) {
			score += 0.2
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
