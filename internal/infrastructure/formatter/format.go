// Package formatter renders records into env, json, yaml and toml documents
// and decodes those documents back into records.
package formatter

import (
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
)

// Format names an output format.
type Format string

const (
	FormatEnv    Format = "env"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatCustom Format = "custom"
)

// Formats lists the built-in drivers in display order.
var Formats = []Format{FormatEnv, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat resolves a user-supplied format name (case-insensitive, "yml"
// accepted for yaml).
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatEnv, FormatJSON, FormatYAML, FormatTOML, FormatCustom:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &domain.FormatError{FormatType: name, Reason: "unknown format"}
	}
}

// Extension returns the conventional file extension, including the dot.
func Extension(f Format) string {
	switch f {
	case FormatEnv:
		return ".env"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatTOML:
		return ".toml"
	default:
		return ".txt"
	}
}
