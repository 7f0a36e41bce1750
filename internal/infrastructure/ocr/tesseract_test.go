package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// fakeTesseract writes a shell script that prints output and records its arguments.
func fakeTesseract(t *testing.T, output string) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	outFile := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(outFile, []byte(output), 0o600))
	binary = filepath.Join(dir, "tesseract")
	script := "#!/bin/sh\necho \"$@\" > '" + argsFile + "'\ncat '" + outFile + "'\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, argsFile
}

func TestTesseractRecognize(t *testing.T) {
	binary, argsFile := fakeTesseract(t, "Models\nGPT-4o  gpt-4o-mini\nclaude-3-haiku-20240307\n")
	tess := NewTesseract(domain.TesseractSettings{Binary: binary, Language: "eng"})
	require.NoError(t, tess.Available())

	models, err := tess.Recognize(context.Background(), ports.Image{Path: "/tmp/shot.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini", "claude-3-haiku-20240307"}, models)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/shot.png stdout -l eng\n", string(args))
}

func TestTesseractNoText(t *testing.T) {
	binary, _ := fakeTesseract(t, "  \n\n")
	_, err := NewTesseract(domain.TesseractSettings{Binary: binary}).Recognize(context.Background(), ports.Image{Path: "x.png"})
	assert.True(t, domain.IsOCRKind(err, domain.OCRNoText))
}

func TestTesseractTextWithoutModels(t *testing.T) {
	binary, _ := fakeTesseract(t, "Invoice total 42\n")
	models, err := NewTesseract(domain.TesseractSettings{Binary: binary}).Recognize(context.Background(), ports.Image{Path: "x.png"})
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestTesseractUnavailable(t *testing.T) {
	tess := NewTesseract(domain.TesseractSettings{Binary: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, tess.Available())
}
