package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
)

const sampleText = "BASE_URL=https://api.example.com/v1\nAPI_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa"

// harness points the CLI at a config whose storage lives in a temp dir.
type harness struct {
	dir        string
	configPath string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, domain.ConfigFile)
	cfg := fmt.Sprintf("preferences:\n  output_format: env\n  ocr_mode: system\nstorage:\n  dir: %s\n  history_backend: json\n  history_max_entries: 100\n", dir)
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return harness{dir: dir, configPath: configPath}
}

func (h harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(context.Background(), Options{ConfigPath: h.configPath})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseFromStdin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, sampleText, "parse")
	require.NoError(t, err)
	assert.Equal(t, "BASE_URL=https://api.example.com/v1\nAPI_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa\nMODELS=\n", out)
}

func TestParseJSONFormat(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, sampleText, "parse", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"api_key": "sk-aaaaaaaaaaaaaaaaaaaaaaaa"`)
	assert.Contains(t, out, `"models": []`)
}

func TestParseOutInfersFormatFromExtension(t *testing.T) {
	h := newHarness(t)
	target := filepath.Join(h.dir, "creds.yaml")

	out, err := h.run(t, sampleText, "parse", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "vendor: custom\nbase_url: https://api.example.com/v1\n"))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.SecureFilePermissions), info.Mode().Perm())
}

func TestParseUnknownFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, sampleText, "parse", "-f", "xml")
	var formatErr *domain.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestParseAnalyze(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, sampleText, "parse", "--analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "https://api.example.com/v1")
	assert.Contains(t, out, "sk-a***aaaa")
	assert.NotContains(t, out, "sk-aaaaaaaaaaaaaaaaaaaaaaaa")
}

func TestHistoryFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded yet.")

	out, err = h.run(t, sampleText, "parse", "--save")
	require.NoError(t, err)
	require.Contains(t, out, "Saved to history as ")

	out, err = h.run(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "History (1 of 1)")
	assert.Contains(t, out, "api.example.com")
	assert.NotContains(t, out, "sk-aaaaaaaaaaaaaaaaaaaaaaaa")

	data, err := os.ReadFile(filepath.Join(h.dir, domain.HistoryFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sk-aaaaaaaaaaaaaaaaaaaaaaaa")

	exported := filepath.Join(h.dir, "export.json")
	out, err = h.run(t, "", "history", "export", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 records")

	out, err = h.run(t, "n\n", "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	_, err = h.run(t, "", "history", "clear", "--yes")
	require.NoError(t, err)

	out, err = h.run(t, "", "history", "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 records")

	_, err = h.run(t, "", "history", "delete", "123")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.run(t, "", "history", "show", "abc")
	assert.Error(t, err)
}

func TestFormatFromFlagsDetectsVendor(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "format", "--base-url", "https://api.openai.com/v1", "--api-key", "k1", "--models", "gpt-4o,gpt-4o-mini", "-f", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, `vendor = "openai"`)
	assert.Contains(t, out, `models = ["gpt-4o", "gpt-4o-mini"]`)
}

func TestFormatConvertsInputFile(t *testing.T) {
	h := newHarness(t)
	input := filepath.Join(h.dir, "creds.env")
	require.NoError(t, os.WriteFile(input, []byte("BASE_URL=https://x\nAPI_KEY=k1\nMODELS=a,b\n"), 0o600))

	out, err := h.run(t, "", "format", "--input", input, "-f", "env")
	require.NoError(t, err)
	assert.Equal(t, "BASE_URL=https://x\nAPI_KEY=k1\nMODELS=a,b\n", out)
}

func TestTemplateGeneralizeAndApply(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "API_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa", "template", "generalize", "--save", "env-key")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved template "env-key"`)

	out, err = h.run(t, "", "template", "show", "env-key")
	require.NoError(t, err)
	assert.Equal(t, "API_KEY={{api_key}}\n", out)

	out, err = h.run(t, "key: sk-bbbbbbbbbbbbbbbbbbbbbbbb", "template", "apply", "env-key")
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=sk-bbbbbbbbbbbbbbbbbbbbbbbb\n", out)

	out, err = h.run(t, "", "template", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "env-key")

	_, err = h.run(t, "", "template", "delete", "env-key")
	require.NoError(t, err)

	_, err = h.run(t, "", "template", "delete", "env-key")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigPathAndValidate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, h.configPath+"\n", out)

	out, err = h.run(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
}

func TestVersionSkipsContainer(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "unused", domain.ConfigFile)
	root := NewRootCmd(context.Background(), Options{ConfigPath: configPath})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "formatapi dev")
	assert.NoFileExists(t, configPath)
}

func TestVendors(t *testing.T) {
	root := NewRootCmd(context.Background(), Options{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"vendors"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "anthropic")
	assert.Contains(t, out.String(), "sk-ant-")
}
