package formatter

import (
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/template"
)

// Render serializes record with one of the built-in drivers.
func Render(record domain.Record, format Format) (string, error) {
	driver, ok := drivers[format]
	if !ok {
		return "", &domain.FormatError{FormatType: string(format), Reason: "no driver for format"}
	}
	out, err := driver.Render(record.Normalized())
	if err != nil {
		return "", &domain.FormatError{FormatType: string(format), Reason: err.Error()}
	}
	return out, nil
}

// Decode parses a document previously produced by Render.
func Decode(data []byte, format Format) (domain.Record, error) {
	driver, ok := drivers[format]
	if !ok {
		return domain.Record{}, &domain.FormatError{FormatType: string(format), Reason: "no driver for format"}
	}
	return driver.Decode(data)
}

// Output renders record as formatType. The custom type requires a non-empty
// template, which is applied with the template engine.
func Output(record domain.Record, formatType, customTemplate string) (string, error) {
	format, err := ParseFormat(formatType)
	if err != nil {
		return "", err
	}
	if format == FormatCustom {
		if customTemplate == "" {
			return "", &domain.FormatError{FormatType: formatType, Reason: "custom format requires a template"}
		}
		return template.Apply(customTemplate, record.Normalized()), nil
	}
	return Render(record, format)
}
