package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.TemplatesFile)
	store := NewFileStore(path)

	want := []domain.CustomTemplate{
		{Name: "shell", Content: "export OPENAI_API_KEY={{api_key}}\nexport OPENAI_BASE_URL={{base_url}}"},
		{Name: "shell", Content: "duplicate names are allowed"},
	}
	require.NoError(t, store.ReplaceAll(want))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "document should be a pretty-printed array: %s", raw)
}

func TestFileStoreCorruptLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.TemplatesFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"not an array"}`), 0o600))

	got, err := NewFileStore(path).Load()
	require.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.Empty(t, got)
}

func TestFileStoreUpdateReplacesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.TemplatesFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	require.NoError(t, store.Update(func(cur []domain.CustomTemplate) ([]domain.CustomTemplate, error) {
		assert.Empty(t, cur)
		return append(cur, domain.CustomTemplate{Name: "env", Content: "KEY={{api_key}}"}), nil
	}))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []domain.CustomTemplate{{Name: "env", Content: "KEY={{api_key}}"}}, got)

	backup, err := os.ReadFile(path + domain.CorruptSuffix)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))
}
