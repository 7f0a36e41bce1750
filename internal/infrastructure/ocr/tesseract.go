package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/extract"
	"github.com/doeshing/formatapi/internal/ports"
)

// ModeSystem selects the local tesseract binary.
const ModeSystem = "system"

// Tesseract recognises text with the tesseract CLI and scans it for model names.
type Tesseract struct {
	binary   string
	language string
}

// NewTesseract builds the system recognizer. An empty binary means "tesseract" on PATH.
func NewTesseract(settings domain.TesseractSettings) *Tesseract {
	binary := strings.TrimSpace(settings.Binary)
	if binary == "" {
		binary = "tesseract"
	}
	return &Tesseract{binary: binary, language: strings.TrimSpace(settings.Language)}
}

func (t *Tesseract) Name() string { return ModeSystem }

// Available reports whether the binary can be found.
func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("tesseract not found: %w", err)
	}
	return nil
}

// Fingerprint identifies the binary and language used for recognition.
func (t *Tesseract) Fingerprint() string {
	return t.binary + "\x00" + t.language
}

func (t *Tesseract) Recognize(ctx context.Context, image ports.Image) ([]string, error) {
	args := []string{image.Path, "stdout"}
	if t.language != "" {
		args = append(args, "-l", t.language)
	}
	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &domain.OCRError{Kind: domain.OCREngine, Err: err}
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, &domain.OCRError{Kind: domain.OCRNoText}
	}
	return extract.ModelNames(text), nil
}
