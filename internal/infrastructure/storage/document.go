// Package storage implements the JSON document used by the history and
// template stores: a single pretty-printed JSON array rewritten atomically on
// every save, with writers serialized by a per-document mutex.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/pkg/filesystem"
)

// Document is a persisted JSON array of T.
type Document[T any] struct {
	path string
	mu   sync.Mutex
}

// NewDocument returns a document stored at path. The file is created lazily.
func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// Load reads the document without taking the write lock. A missing file is an
// empty document. An undecodable file yields an empty list and an error
// matching domain.ErrCorruptStore.
func (d *Document[T]) Load() ([]T, error) {
	items, _, err := d.read()
	return items, err
}

// Replace overwrites the whole document.
func (d *Document[T]) Replace(items []T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, corrupt, err := d.read()
	if err != nil && !corrupt {
		return err
	}
	return d.write(items, corrupt)
}

// Update runs fn on the current content and writes the result, all under the
// write lock, so concurrent updates cannot lose each other's changes. A
// corrupt document is handed to fn as empty.
func (d *Document[T]) Update(fn func([]T) ([]T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	items, corrupt, err := d.read()
	if err != nil && !corrupt {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return d.write(next, corrupt)
}

func (d *Document[T]) read() ([]T, bool, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, false, nil
		}
		return []T{}, false, &domain.PersistenceError{Op: "read", Path: d.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, false, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return []T{}, true, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, d.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, false, nil
}

func (d *Document[T]) write(items []T, corrupt bool) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Path: d.path, Err: err}
	}
	data = append(data, '\n')
	if corrupt {
		// keep the undecodable bytes around instead of silently discarding them
		if err := os.Rename(d.path, d.path+domain.CorruptSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &domain.PersistenceError{Op: "backup", Path: d.path, Err: err}
		}
	}
	if err := filesystem.WriteFileAtomic(d.path, data, domain.SecureFilePermissions); err != nil {
		return &domain.PersistenceError{Op: "write", Path: d.path, Err: err}
	}
	return nil
}
