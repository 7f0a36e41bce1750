package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/ports"
)

// writePNG creates a tiny valid PNG and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

type stubRecognizer struct {
	name        string
	unavailable error
	results     map[string][]string
	err         error
	fingerprint string
	calls       atomic.Int32
}

func (s *stubRecognizer) Name() string        { return s.name }
func (s *stubRecognizer) Available() error    { return s.unavailable }
func (s *stubRecognizer) Fingerprint() string { return s.fingerprint }

func (s *stubRecognizer) Recognize(_ context.Context, img ports.Image) ([]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[filepath.Base(img.Path)], nil
}
