// Package templates persists user-authored output templates.
package templates

import (
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/storage"
	"github.com/doeshing/formatapi/internal/ports"
)

// FileStore keeps templates in templates.json.
type FileStore struct {
	doc *storage.Document[domain.CustomTemplate]
}

// NewFileStore creates a template store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{doc: storage.NewDocument[domain.CustomTemplate](path)}
}

// Load returns all templates in stored order.
func (f *FileStore) Load() ([]domain.CustomTemplate, error) {
	return f.doc.Load()
}

// ReplaceAll overwrites the stored templates.
func (f *FileStore) ReplaceAll(templates []domain.CustomTemplate) error {
	return f.doc.Replace(templates)
}

// Update applies fn to the stored templates under the document write lock.
func (f *FileStore) Update(fn func([]domain.CustomTemplate) ([]domain.CustomTemplate, error)) error {
	return f.doc.Update(fn)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.doc.Path()
}

var _ ports.TemplateRepository = (*FileStore)(nil)
