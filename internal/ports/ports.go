// Package ports defines the interfaces (ports) between the formatapi engine
// and its adapters.
//
// The engine depends on these abstractions only: the document stores, the
// OCR recognizers and the logger are all provided by the infrastructure layer
// and wired in internal/app.
package ports

import (
	"context"

	"github.com/doeshing/formatapi/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.formatapi/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// HistoryRepository persists parsed records. ReplaceAll is the only bulk
// mutation primitive; Add appends a record whose timestamp must be new and
// Delete removes one by timestamp. Add and Delete are atomic with respect to
// each other and to ReplaceAll.
//
// Load returns an error matching domain.ErrCorruptStore together with an
// empty list when the underlying document could not be decoded.
type HistoryRepository interface {
	Add(record domain.Record) error
	Delete(timestamp int64) error
	Load() ([]domain.Record, error)
	ReplaceAll(records []domain.Record) error
	Clear() error
	Path() string
}

// TemplateRepository persists user templates with whole-list replace.
// Update runs fn on the current list under the store's write lock and saves
// its result; a corrupt document is handed to fn as empty.
type TemplateRepository interface {
	Load() ([]domain.CustomTemplate, error)
	ReplaceAll(templates []domain.CustomTemplate) error
	Update(fn func([]domain.CustomTemplate) ([]domain.CustomTemplate, error)) error
	Path() string
}

// ModelExtractor turns an image into an ordered list of model names.
// Implementations return *domain.OCRError on failure.
type ModelExtractor interface {
	ExtractModels(ctx context.Context, imagePath, mode string) ([]string, error)
	ExtractModelsBatch(ctx context.Context, imagePaths []string, mode string) ([]string, error)
}

// OCRCache stores recognition results keyed by image content and mode.
// A miss is (zero, false, nil).
type OCRCache interface {
	Get(key string) (domain.OCRCacheEntry, bool, error)
	Set(entry domain.OCRCacheEntry) error
}

// Recognizer is a single OCR engine. It returns the raw model names it found
// in the image, or *domain.OCRError.
type Recognizer interface {
	Name() string
	Available() error
	Recognize(ctx context.Context, image Image) ([]string, error)
}

// Image is a validated image file handed to a Recognizer.
type Image struct {
	Path     string
	MIMEType string
	Data     []byte
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
