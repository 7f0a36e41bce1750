// Package template renders records through user-authored {{token}} templates
// and turns concrete configuration examples into such templates.
package template

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
)

// Token names understood by Apply.
const (
	TokenAPIKey      = "api_key"
	TokenBaseURL     = "base_url"
	TokenModels      = "models"
	TokenModelsComma = "models_comma"
	TokenVendor      = "vendor"
	TokenModel       = "model"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Apply substitutes every recognised {{name}} token in tpl in a single
// left-to-right pass. Unknown tokens are kept verbatim and substituted values
// are never scanned again.
func Apply(tpl string, record domain.Record) string {
	values := Values(record)
	return tokenPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		if value, ok := values[name]; ok {
			return value
		}
		return token
	})
}

// Values returns the substitution table for record. Absent fields map to "".
func Values(record domain.Record) map[string]string {
	first := ""
	if len(record.Models) > 0 {
		first = record.Models[0]
	}
	return map[string]string{
		TokenAPIKey:      record.APIKey,
		TokenBaseURL:     record.BaseURL,
		TokenModels:      QuotedList(record.Models),
		TokenModelsComma: strings.Join(record.Models, ","),
		TokenVendor:      record.Vendor,
		TokenModel:       first,
	}
}

// QuotedList renders models as a bracketed list of JSON strings: ["a","b"].
func QuotedList(models []string) string {
	if models == nil {
		models = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(models); err != nil {
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Placeholder wraps a token name in braces.
func Placeholder(name string) string {
	return "{{" + name + "}}"
}
