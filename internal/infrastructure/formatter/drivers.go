package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/extract"
)

// Driver serializes a record in one format and parses it back.
type Driver interface {
	Render(record domain.Record) (string, error)
	Decode(data []byte) (domain.Record, error)
}

var drivers = map[Format]Driver{
	FormatEnv:  envDriver{},
	FormatJSON: jsonDriver{},
	FormatYAML: yamlDriver{},
	FormatTOML: tomlDriver{},
}

// document fixes the field order shared by the structured formats.
type document struct {
	Vendor  string   `json:"vendor" yaml:"vendor" toml:"vendor"`
	BaseURL string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey  string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	Models  []string `json:"models" yaml:"models" toml:"models"`
}

func toDocument(r domain.Record) document {
	r = r.Normalized()
	return document{Vendor: r.Vendor, BaseURL: r.BaseURL, APIKey: r.APIKey, Models: r.Models}
}

func (d document) record() domain.Record {
	return domain.Record{Vendor: d.Vendor, BaseURL: d.BaseURL, APIKey: d.APIKey, Models: d.Models}.Normalized()
}

// Env keys, in output order.
const (
	EnvBaseURL = "BASE_URL"
	EnvAPIKey  = "API_KEY"
	EnvModels  = "MODELS"
)

type envDriver struct{}

func (envDriver) Render(r domain.Record) (string, error) {
	var b strings.Builder
	for _, kv := range [][2]string{
		{EnvBaseURL, r.BaseURL},
		{EnvAPIKey, r.APIKey},
		{EnvModels, strings.Join(r.Models, ",")},
	} {
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(quoteEnv(kv[1]))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (envDriver) Decode(data []byte) (domain.Record, error) {
	env, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return domain.Record{}, fmt.Errorf("decode env: %w", err)
	}
	models := []string{}
	for _, m := range strings.Split(env[EnvModels], ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return domain.Record{
		Vendor:  extract.DetectVendor(env[EnvBaseURL], env[EnvAPIKey]),
		BaseURL: env[EnvBaseURL],
		APIKey:  env[EnvAPIKey],
		Models:  models,
	}, nil
}

// quoteEnv leaves plain tokens bare, single-quotes values a dotenv reader
// would otherwise alter, and double-quotes with escapes as a last resort.
func quoteEnv(v string) string {
	if !strings.ContainsAny(v, " \t\r\n#'\"`\\$") {
		return v
	}
	if !strings.ContainsAny(v, "'\r\n") {
		return "'" + v + "'"
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "$", `\$`)
	return `"` + r.Replace(v) + `"`
}

type jsonDriver struct{}

func (jsonDriver) Render(r domain.Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(r)); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return buf.String(), nil
}

func (jsonDriver) Decode(data []byte) (domain.Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Record{}, fmt.Errorf("decode json: %w", err)
	}
	return doc.record(), nil
}

type yamlDriver struct{}

func (yamlDriver) Render(r domain.Record) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(r)); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil
}

func (yamlDriver) Decode(data []byte) (domain.Record, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Record{}, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.record(), nil
}

type tomlDriver struct{}

func (tomlDriver) Render(r domain.Record) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(toDocument(r)); err != nil {
		return "", fmt.Errorf("encode toml: %w", err)
	}
	return buf.String(), nil
}

func (tomlDriver) Decode(data []byte) (domain.Record, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return domain.Record{}, fmt.Errorf("decode toml: %w", err)
	}
	return doc.record(), nil
}
