package history

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

func backends(t *testing.T, maxEntries int) map[string]ports.HistoryRepository {
	t.Helper()
	dir := t.TempDir()
	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, domain.HistoryDBFile), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })
	return map[string]ports.HistoryRepository{
		"json":   NewFileStore(filepath.Join(dir, domain.HistoryFile), maxEntries),
		"sqlite": sqliteStore,
	}
}

func TestStoreAddAndLoad(t *testing.T) {
	for name, store := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			first := domain.Record{Timestamp: 1000, Vendor: "openai", BaseURL: "https://api.openai.com/v1", APIKey: "sk-x", Models: []string{"gpt-4o"}}
			second := domain.Record{Timestamp: 1001, BaseURL: "https://x"}

			require.NoError(t, store.Add(first))
			require.NoError(t, store.Add(second))

			records, err := store.Load()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, first, records[0])
			assert.Equal(t, int64(1001), records[1].Timestamp)
			assert.Equal(t, domain.VendorCustom, records[1].Vendor)
			assert.Equal(t, []string{}, records[1].Models)
		})
	}
}

func TestStoreRejectsDuplicateTimestamp(t *testing.T) {
	for name, store := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Add(domain.Record{Timestamp: 42, APIKey: "a"}))
			err := store.Add(domain.Record{Timestamp: 42, APIKey: "b"})
			require.ErrorIs(t, err, domain.ErrDuplicateTimestamp)

			records, err := store.Load()
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "a", records[0].APIKey)

			err = store.ReplaceAll([]domain.Record{{Timestamp: 1}, {Timestamp: 1}})
			require.ErrorIs(t, err, domain.ErrDuplicateTimestamp)
		})
	}
}

func TestStoreReplaceAllAndClear(t *testing.T) {
	for name, store := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			for ts := int64(1); ts <= 3; ts++ {
				require.NoError(t, store.Add(domain.Record{Timestamp: ts}))
			}

			records, err := store.Load()
			require.NoError(t, err)
			var kept []domain.Record
			for _, rec := range records {
				if rec.Timestamp != 2 {
					kept = append(kept, rec)
				}
			}
			require.NoError(t, store.ReplaceAll(kept))

			records, err = store.Load()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, int64(1), records[0].Timestamp)
			assert.Equal(t, int64(3), records[1].Timestamp)

			require.NoError(t, store.Clear())
			records, err = store.Load()
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			for ts := int64(1); ts <= 3; ts++ {
				require.NoError(t, store.Add(domain.Record{Timestamp: ts}))
			}

			require.NoError(t, store.Delete(2))
			assert.ErrorIs(t, store.Delete(2), domain.ErrNotFound)

			records, err := store.Load()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, int64(1), records[0].Timestamp)
			assert.Equal(t, int64(3), records[1].Timestamp)
		})
	}
}

func TestStoreConcurrentAddAndDelete(t *testing.T) {
	for name, store := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			for ts := int64(1); ts <= 20; ts++ {
				require.NoError(t, store.Add(domain.Record{Timestamp: ts}))
			}

			var wg sync.WaitGroup
			for ts := int64(1); ts <= 20; ts++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Delete(ts))
				}()
				go func() {
					defer wg.Done()
					assert.NoError(t, store.Add(domain.Record{Timestamp: ts + 100}))
				}()
			}
			wg.Wait()

			records, err := store.Load()
			require.NoError(t, err)
			require.Len(t, records, 20)
			for i, rec := range records {
				assert.Equal(t, int64(i+101), rec.Timestamp)
			}
		})
	}
}

func TestStorePrunesOldest(t *testing.T) {
	for name, store := range backends(t, 2) {
		t.Run(name, func(t *testing.T) {
			for ts := int64(10); ts <= 13; ts++ {
				require.NoError(t, store.Add(domain.Record{Timestamp: ts}))
			}
			records, err := store.Load()
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, int64(12), records[0].Timestamp)
			assert.Equal(t, int64(13), records[1].Timestamp)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.HistoryFile)
	require.NoError(t, NewFileStore(path, 0).Add(domain.Record{Timestamp: 5, APIKey: "k"}))

	records, err := NewFileStore(path, 0).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "k", records[0].APIKey)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.HistoryFile)
	require.NoError(t, os.WriteFile(path, []byte(`[{"timestamp": "oops"`), 0o600))
	store := NewFileStore(path, 0)

	records, err := store.Load()
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.Empty(t, records)

	require.NoError(t, store.Add(domain.Record{Timestamp: 9}))
	records, err = store.Load()
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.FileExists(t, path+domain.CorruptSuffix)
}

func TestSQLiteStoreRejectsNonDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.HistoryDBFile)
	require.NoError(t, os.WriteFile(path, []byte("this is definitely not a sqlite database file, just text padding it out"), 0o600))

	_, err := NewSQLiteStore(path, 0)
	require.Error(t, err)
}
