// Package cache keeps OCR recognition results on disk so repeated screenshots
// do not hit the OCR engines again.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/pkg/filesystem"
	"github.com/doeshing/formatapi/internal/ports"
)

// FileCache stores one JSON blob per entry, addressed by hash key.
type FileCache struct {
	dir        string
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewFileCache returns a cache rooted at dir. An unparsable TTL disables expiry.
func NewFileCache(dir string, settings domain.OCRCacheSettings) *FileCache {
	ttl, err := time.ParseDuration(settings.TTL)
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return &FileCache{
		dir:        dir,
		maxEntries: settings.MaxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get retrieves an entry. Expired entries are removed and reported as misses.
func (c *FileCache) Get(key string) (domain.OCRCacheEntry, bool, error) {
	if key == "" {
		return domain.OCRCacheEntry{}, false, nil
	}
	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.OCRCacheEntry{}, false, nil
		}
		return domain.OCRCacheEntry{}, false, err
	}
	var entry domain.OCRCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return domain.OCRCacheEntry{}, false, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl {
		_ = os.Remove(path)
		return domain.OCRCacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Set stores an entry and evicts the oldest ones beyond the limit.
func (c *FileCache) Set(entry domain.OCRCacheEntry) error {
	if entry.Key == "" {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := filesystem.WriteFileAtomic(c.pathFor(entry.Key), data, domain.SecureFilePermissions); err != nil {
		return err
	}
	return c.evictIfNeeded()
}

// Dir exposes the cache directory path.
func (c *FileCache) Dir() string {
	return c.dir
}

// Clear removes all cached entries.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

// Entries lists readable entries, oldest first.
func (c *FileCache) Entries() ([]domain.OCRCacheEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []domain.OCRCacheEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, f.Name()))
		if err != nil {
			continue
		}
		var entry domain.OCRCacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

// Size returns the total size of the cache files in bytes.
func (c *FileCache) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *FileCache) evictIfNeeded() error {
	if c.maxEntries <= 0 {
		return nil
	}
	entries, err := c.Entries()
	if err != nil {
		return err
	}
	for len(entries) > c.maxEntries {
		_ = os.Remove(c.pathFor(entries[0].Key))
		entries = entries[1:]
	}
	return nil
}

var _ ports.OCRCache = (*FileCache)(nil)
