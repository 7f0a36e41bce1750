package template

import (
	"regexp"
	"strings"

	"github.com/doeshing/formatapi/internal/infrastructure/extract"
)

var (
	quotedItem = `(?:"[^"]*"|'[^']*')`

	modelsListLine = regexp.MustCompile(`(?i)^(\s*["']?models?["']?\s*[:=]\s*)\[\s*(?:` +
		quotedItem + `(?:\s*,\s*` + quotedItem + `)*\s*,?)?\s*\](\s*,?\s*)$`)
	modelsLine = regexp.MustCompile(`(?i)^(\s*["']?models?["']?\s*[:=]\s*)(\S.*?)(\s*)$`)
)

// pass is one global rewrite over the whole text.
type pass func(string) string

// generalizePasses run in order; each sees the output of the previous one.
var generalizePasses = []pass{
	replaceSecretKeys,
	replaceAssignedKeys,
	replaceURLs,
	perLine(replaceModelsList),
	perLine(replaceModelsScalar),
}

// Generalize converts a concrete configuration example into a template by
// replacing literal keys, URLs and model lists with placeholder tokens.
func Generalize(example string) string {
	out := example
	for _, p := range generalizePasses {
		out = p(out)
	}
	return out
}

func replaceSecretKeys(text string) string {
	return extract.SecretKeyPattern.ReplaceAllLiteralString(text, Placeholder(TokenAPIKey))
}

func replaceAssignedKeys(text string) string {
	return replaceSpans(text, extract.FindAssignedKeys(text), Placeholder(TokenAPIKey))
}

// replaceURLs stops each URL at "{{" so placeholders written by earlier
// passes stay intact.
func replaceURLs(text string) string {
	return replaceSpans(text, extract.FindURLsUntil(text, "{{"), Placeholder(TokenBaseURL))
}

func replaceSpans(text string, spans []extract.Span, with string) string {
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(with)
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// perLine applies fn to every line that does not already hold a placeholder.
func perLine(fn func(string) string) pass {
	return func(text string) string {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.Contains(line, "{{") {
				continue
			}
			lines[i] = fn(line)
		}
		return strings.Join(lines, "\n")
	}
}

func replaceModelsList(line string) string {
	return modelsListLine.ReplaceAllString(line, "${1}"+Placeholder(TokenModels)+"${2}")
}

// replaceModelsScalar leaves an opening bracket alone: a list spread over
// several lines is not rewritten.
func replaceModelsScalar(line string) string {
	m := modelsLine.FindStringSubmatch(line)
	if m == nil || strings.HasPrefix(m[2], "[") {
		return line
	}
	return m[1] + Placeholder(TokenModelsComma) + m[3]
}
