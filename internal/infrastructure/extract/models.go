package extract

import (
	"regexp"
	"strings"
)

var modelNamePattern = regexp.MustCompile(`(?i)(?:` + strings.Join([]string{
	`gpt-[\w.-]+`,
	`claude-[\w.-]+`,
	`gemini-[\w.-]+`,
	`deepseek-[\w.-]+`,
	`glm-[\w.-]+`,
	`moonshot-[\w.-]+`,
	`o1-[\w.-]+`,
	`text-[\w.-]+`,
	`[\w-]+-\d{8,}`,
}, "|") + `)`)

const (
	minModelLen = 3
	maxModelLen = 80
)

// ModelNames scans recognised text for model identifiers and returns them
// lower-cased, distinct and in detection order.
func ModelNames(text string) []string {
	models := []string{}
	seen := map[string]bool{}
	for _, raw := range modelNamePattern.FindAllString(text, -1) {
		name := strings.ToLower(strings.TrimRight(strings.TrimSpace(raw), ".-"))
		if len(name) < minModelLen || len(name) > maxModelLen || seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	return models
}

var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

// ModelLines treats every non-empty line as one model name, stripping list
// markers and wrapping backticks. Lines with inner spaces are prose, not
// names. Vision-model replies are asked for one name per line.
func ModelLines(reply string) []string {
	models := []string{}
	seen := map[string]bool{}
	for _, line := range strings.Split(reply, "\n") {
		name := strings.TrimSpace(line)
		name = listMarker.ReplaceAllString(name, "")
		name = strings.Trim(name, "`\"' ")
		if name == "" || strings.ContainsAny(name, " \t") || len(name) > maxModelLen || seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	return models
}
