package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptStore reports that a persisted document could not be decoded
	// and was treated as empty.
	ErrCorruptStore = errors.New("store document corrupt")
	// ErrDuplicateTimestamp is returned when a record's timestamp already exists in the store.
	ErrDuplicateTimestamp = errors.New("record timestamp already exists")
	// ErrNotFound is returned when a record or template is not present.
	ErrNotFound = errors.New("not found")
)

// FormatError is returned by format_output when the request cannot be rendered.
type FormatError struct {
	FormatType string
	Reason     string
}

func (e *FormatError) Error() string {
	if e.FormatType == "" {
		return "format: " + e.Reason
	}
	return fmt.Sprintf("format %q: %s", e.FormatType, e.Reason)
}

// OCRErrorKind classifies OCR failures.
type OCRErrorKind string

const (
	OCRUnreadable  OCRErrorKind = "unreadable"
	OCRUnavailable OCRErrorKind = "unavailable"
	OCRNoText      OCRErrorKind = "no_text"
	OCREngine      OCRErrorKind = "engine"
)

// OCRError is returned by the OCR adapter. Callers may retry with another image or mode.
type OCRError struct {
	Kind OCRErrorKind
	Mode string
	Path string
	Err  error
}

func (e *OCRError) Error() string {
	msg := fmt.Sprintf("ocr %s (%s): %s", e.Mode, e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OCRError) Unwrap() error { return e.Err }

// PersistenceError wraps I/O failures of the history and template stores.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsOCRKind reports whether err is an OCRError of the given kind.
func IsOCRKind(err error, kind OCRErrorKind) bool {
	var ocrErr *OCRError
	return errors.As(err, &ocrErr) && ocrErr.Kind == kind
}
