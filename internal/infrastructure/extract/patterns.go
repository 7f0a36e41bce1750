// Package extract implements the field extractors and the text parser that
// turns pasted, unstructured text into a domain.Record.
//
// Extractors are independent: each one scans the full text and none of them
// consumes input from another. Precedence is expressed by the order of the
// extractor lists below, and within one extractor the leftmost match wins.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// SecretKeyPattern matches vendor-style secret tokens: "sk-" followed by at
	// least 20 alphanumerics. The token ends at the first "_" or "-".
	SecretKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)
	// AssignedKeyPattern matches key/apiKey/api_key assignments whose value is
	// at least 32 alphanumerics. Group 1 is the value.
	AssignedKeyPattern = regexp.MustCompile(`(?i)(?:api_key|apikey|key)["']?\s*[:=]\s*["']?([A-Za-z0-9]{32,})["']?`)
	// BearerPattern matches Authorization bearer tokens. Group 1 is the token.
	BearerPattern = regexp.MustCompile(`(?i)Bearer\s+([A-Za-z0-9_-]{20,})`)
	// URLPattern matches http(s) URL tokens. Trailing punctuation is trimmed separately.
	URLPattern = regexp.MustCompile("https?://[^\\s,;'\"`<>\\[\\]。，；]+")

	bareKeyLine = regexp.MustCompile(`^[A-Za-z0-9_-]{32,100}$`)
)

// urlTrailing lists punctuation that is never part of a URL's final character.
const urlTrailing = ".,;:!?)}。，；：！？"

// Span is a matched value and its byte offsets in the scanned text.
type Span struct {
	Value string
	Start int
	End   int
}

// FindURLs returns every URL token in text, leftmost first, with trailing
// punctuation trimmed. Tokens without a host are skipped.
func FindURLs(text string) []Span {
	return findURLs(text, "")
}

// FindURLsUntil is FindURLs with every token cut at the first occurrence of
// stop, so text after it is never part of a URL.
func FindURLsUntil(text, stop string) []Span {
	return findURLs(text, stop)
}

func findURLs(text, stop string) []Span {
	var spans []Span
	for _, loc := range URLPattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if stop != "" {
			if i := strings.Index(raw, stop); i >= 0 {
				raw = raw[:i]
			}
		}
		raw = strings.TrimRight(raw, urlTrailing)
		if !validURL(raw) {
			continue
		}
		spans = append(spans, Span{Value: raw, Start: loc[0], End: loc[0] + len(raw)})
	}
	return spans
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// findGroup returns the spans of capture group `group` (0 for the whole match).
func findGroup(re *regexp.Regexp, text string, group int) []Span {
	var spans []Span
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2*group], m[2*group+1]
		if start < 0 {
			continue
		}
		spans = append(spans, Span{Value: text[start:end], Start: start, End: end})
	}
	return spans
}

// FindAssignedKeys returns the value spans of key assignments.
func FindAssignedKeys(text string) []Span {
	return findGroup(AssignedKeyPattern, text, 1)
}

// FindSecretKeys returns every sk- token.
func FindSecretKeys(text string) []Span {
	return findGroup(SecretKeyPattern, text, 0)
}
