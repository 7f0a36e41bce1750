package ocr

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// LoadImage reads path and checks by content sniffing that it is an image.
func LoadImage(path string) (ports.Image, error) {
	unreadable := func(err error) (ports.Image, error) {
		return ports.Image{}, &domain.OCRError{Kind: domain.OCRUnreadable, Path: path, Err: err}
	}
	info, err := os.Stat(path)
	if err != nil {
		return unreadable(err)
	}
	if info.IsDir() {
		return unreadable(errors.New("is a directory"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return unreadable(err)
	}
	if len(data) == 0 {
		return unreadable(errors.New("empty file"))
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return unreadable(fmt.Errorf("not an image (%s)", mt.String()))
	}
	return ports.Image{Path: path, MIMEType: mt.String(), Data: data}, nil
}
