package history

import (
	"fmt"
	"slices"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/storage"
	"github.com/doeshing/formatapi/internal/ports"
)

// FileStore keeps history records in a single JSON document (history.json),
// oldest first.
type FileStore struct {
	doc        *storage.Document[domain.Record]
	maxEntries int
}

// NewFileStore creates a history store backed by path. maxEntries <= 0 disables pruning.
func NewFileStore(path string, maxEntries int) *FileStore {
	return &FileStore{
		doc:        storage.NewDocument[domain.Record](path),
		maxEntries: maxEntries,
	}
}

// Add appends a record. The timestamp must not already be present.
func (f *FileStore) Add(record domain.Record) error {
	record = record.Normalized()
	return f.doc.Update(func(records []domain.Record) ([]domain.Record, error) {
		if containsTimestamp(records, record.Timestamp) {
			return nil, domain.ErrDuplicateTimestamp
		}
		records = append(records, record)
		return prune(records, f.maxEntries), nil
	})
}

// Delete removes the record with timestamp ts. A missing record yields
// domain.ErrNotFound and leaves the document untouched.
func (f *FileStore) Delete(ts int64) error {
	return f.doc.Update(func(records []domain.Record) ([]domain.Record, error) {
		kept := slices.DeleteFunc(records, func(r domain.Record) bool { return r.Timestamp == ts })
		if len(kept) == len(records) {
			return nil, fmt.Errorf("history item %d: %w", ts, domain.ErrNotFound)
		}
		return kept, nil
	})
}

// Load returns all records, oldest first.
func (f *FileStore) Load() ([]domain.Record, error) {
	return f.doc.Load()
}

// ReplaceAll overwrites the history with records.
func (f *FileStore) ReplaceAll(records []domain.Record) error {
	normalized := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if containsTimestamp(normalized, rec.Timestamp) {
			return domain.ErrDuplicateTimestamp
		}
		normalized = append(normalized, rec.Normalized())
	}
	return f.doc.Replace(normalized)
}

// Clear replaces the history with an empty list.
func (f *FileStore) Clear() error {
	return f.doc.Replace(nil)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.doc.Path()
}

func containsTimestamp(records []domain.Record, ts int64) bool {
	return slices.ContainsFunc(records, func(r domain.Record) bool { return r.Timestamp == ts })
}

func prune(records []domain.Record, max int) []domain.Record {
	if max <= 0 || len(records) <= max {
		return records
	}
	return records[len(records)-max:]
}

var _ ports.HistoryRepository = (*FileStore)(nil)
