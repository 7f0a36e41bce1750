package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// SQLiteStore persists history in a SQLite database. The timestamp is the
// primary key, so duplicate adds are rejected by the database itself.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	mu         sync.Mutex
	maxEntries int
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, maxEntries int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, &domain.PersistenceError{Op: "mkdir", Path: path, Err: err}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "open", Path: path, Err: err}
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, path: path, maxEntries: maxEntries}
	if err := store.init(); err != nil {
		_ = db.Close()
		if isCorruption(err) {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, path, err)
		}
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
		timestamp INTEGER PRIMARY KEY,
		vendor TEXT NOT NULL,
		base_url TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		models TEXT NOT NULL DEFAULT '[]'
	);`)
	if err != nil {
		return &domain.PersistenceError{Op: "init", Path: s.path, Err: err}
	}
	return nil
}

// Add inserts a record and prunes the oldest rows beyond maxEntries.
func (s *SQLiteStore) Add(record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM records WHERE timestamp = ?`, record.Timestamp).Scan(&exists); err != nil {
		return &domain.PersistenceError{Op: "query", Path: s.path, Err: err}
	}
	if exists > 0 {
		return domain.ErrDuplicateTimestamp
	}
	if err := insert(tx, record.Normalized()); err != nil {
		return &domain.PersistenceError{Op: "insert", Path: s.path, Err: err}
	}
	if s.maxEntries > 0 {
		_, err := tx.Exec(`DELETE FROM records WHERE timestamp NOT IN (
			SELECT timestamp FROM records ORDER BY timestamp DESC LIMIT ?)`, s.maxEntries)
		if err != nil {
			return &domain.PersistenceError{Op: "prune", Path: s.path, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit", Path: s.path, Err: err}
	}
	return nil
}

// Delete removes the row with timestamp ts.
func (s *SQLiteStore) Delete(ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM records WHERE timestamp = ?`, ts)
	if err != nil {
		return &domain.PersistenceError{Op: "delete", Path: s.path, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "delete", Path: s.path, Err: err}
	}
	if n == 0 {
		return fmt.Errorf("history item %d: %w", ts, domain.ErrNotFound)
	}
	return nil
}

// Load returns records oldest first. Rows whose model column cannot be decoded
// are returned with an empty model list and reported as corruption.
func (s *SQLiteStore) Load() ([]domain.Record, error) {
	rows, err := s.db.Query(`SELECT timestamp, vendor, base_url, api_key, models FROM records ORDER BY timestamp ASC`)
	if err != nil {
		if isCorruption(err) {
			return []domain.Record{}, fmt.Errorf("%w: %s: %v", domain.ErrCorruptStore, s.path, err)
		}
		return []domain.Record{}, &domain.PersistenceError{Op: "query", Path: s.path, Err: err}
	}
	defer rows.Close()

	records := []domain.Record{}
	var corrupt error
	for rows.Next() {
		var rec domain.Record
		var models string
		if err := rows.Scan(&rec.Timestamp, &rec.Vendor, &rec.BaseURL, &rec.APIKey, &models); err != nil {
			return []domain.Record{}, &domain.PersistenceError{Op: "scan", Path: s.path, Err: err}
		}
		if err := json.Unmarshal([]byte(models), &rec.Models); err != nil {
			corrupt = fmt.Errorf("%w: %s: record %d: %v", domain.ErrCorruptStore, s.path, rec.Timestamp, err)
		}
		records = append(records, rec.Normalized())
	}
	if err := rows.Err(); err != nil {
		return []domain.Record{}, &domain.PersistenceError{Op: "scan", Path: s.path, Err: err}
	}
	return records, corrupt
}

// ReplaceAll swaps the table content in one transaction.
func (s *SQLiteStore) ReplaceAll(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return &domain.PersistenceError{Op: "delete", Path: s.path, Err: err}
	}
	seen := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Timestamp]; dup {
			return domain.ErrDuplicateTimestamp
		}
		seen[rec.Timestamp] = struct{}{}
		if err := insert(tx, rec.Normalized()); err != nil {
			return &domain.PersistenceError{Op: "insert", Path: s.path, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit", Path: s.path, Err: err}
	}
	return nil
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	return s.ReplaceAll(nil)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func insert(tx *sql.Tx, rec domain.Record) error {
	models, err := json.Marshal(rec.Models)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO records (timestamp, vendor, base_url, api_key, models) VALUES (?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Vendor, rec.BaseURL, rec.APIKey, string(models))
	return err
}

func isCorruption(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database")
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
