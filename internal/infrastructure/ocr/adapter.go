// Package ocr adapts OCR engines to the model-extraction contract: an image
// path and a mode go in, an ordered list of distinct model names comes out.
package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// Adapter dispatches to the recognizer registered for a mode.
type Adapter struct {
	recognizers map[string]ports.Recognizer
	concurrency int
	timeout     time.Duration
	cache       ports.OCRCache
	logger      ports.Logger
}

// fingerprinter is implemented by recognizers whose output depends on
// settings beyond the image, such as a model name or prompt.
type fingerprinter interface {
	Fingerprint() string
}

// Option customises an Adapter.
type Option func(*Adapter)

// WithConcurrency bounds ExtractModelsBatch.
func WithConcurrency(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithTimeout limits a single recognition. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// WithCache reuses results for images already recognised in the same mode.
func WithCache(c ports.OCRCache) Option {
	return func(a *Adapter) { a.cache = c }
}

// NewAdapter registers recognizers by their Name.
func NewAdapter(logger ports.Logger, recognizers []ports.Recognizer, opts ...Option) *Adapter {
	a := &Adapter{
		recognizers: make(map[string]ports.Recognizer, len(recognizers)),
		concurrency: domain.DefaultOCRConcurrency,
		timeout:     domain.DefaultOCRTimeout,
		logger:      logger,
	}
	for _, r := range recognizers {
		a.recognizers[r.Name()] = r
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Modes returns the registered mode names, sorted.
func (a *Adapter) Modes() []string {
	modes := make([]string, 0, len(a.recognizers))
	for m := range a.recognizers {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// Check reports whether mode is usable without running it.
func (a *Adapter) Check(mode string) error {
	r, ok := a.recognizers[mode]
	if !ok {
		return &domain.OCRError{Kind: domain.OCRUnavailable, Mode: mode, Err: fmt.Errorf("unknown mode %q", mode)}
	}
	if err := r.Available(); err != nil {
		return &domain.OCRError{Kind: domain.OCRUnavailable, Mode: mode, Err: err}
	}
	return nil
}

// ExtractModels recognises imagePath with the engine selected by mode.
func (a *Adapter) ExtractModels(ctx context.Context, imagePath, mode string) ([]string, error) {
	if err := a.Check(mode); err != nil {
		return nil, withPath(err, imagePath)
	}
	image, err := LoadImage(imagePath)
	if err != nil {
		return nil, withMode(err, mode)
	}

	key := cacheKey(image, mode, fingerprint(a.recognizers[mode]))
	if models, ok := a.cached(key, mode, imagePath); ok {
		return models, nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.recognizers[mode].Recognize(ctx, image)
	if err != nil {
		var ocrErr *domain.OCRError
		if !errors.As(err, &ocrErr) {
			err = &domain.OCRError{Kind: domain.OCREngine, Err: err}
		}
		err = withPath(withMode(err, mode), imagePath)
		a.logger.Warn("ocr failed", map[string]interface{}{"mode": mode, "path": imagePath, "error": err.Error()})
		return nil, err
	}

	models := Distinct(raw)
	a.logger.Debug("ocr finished", map[string]interface{}{
		"mode":     mode,
		"path":     imagePath,
		"models":   len(models),
		"duration": time.Since(start).String(),
	})
	a.store(domain.OCRCacheEntry{Key: key, Mode: mode, Path: imagePath, Models: models})
	return models, nil
}

// cacheKey hashes the image content together with the mode and the
// recognizer fingerprint.
func cacheKey(image ports.Image, mode, fp string) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(fp))
	h.Write([]byte{0})
	h.Write(image.Data)
	return hex.EncodeToString(h.Sum(nil))
}

func fingerprint(r ports.Recognizer) string {
	if f, ok := r.(fingerprinter); ok {
		return f.Fingerprint()
	}
	return ""
}

func (a *Adapter) cached(key, mode, path string) ([]string, bool) {
	if a.cache == nil {
		return nil, false
	}
	entry, ok, err := a.cache.Get(key)
	if err != nil {
		a.logger.Warn("ocr cache read failed", map[string]interface{}{"path": path, "error": err.Error()})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	a.logger.Debug("ocr cache hit", map[string]interface{}{"mode": mode, "path": path})
	return Distinct(entry.Models), true
}

func (a *Adapter) store(entry domain.OCRCacheEntry) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(entry); err != nil {
		a.logger.Warn("ocr cache write failed", map[string]interface{}{"path": entry.Path, "error": err.Error()})
	}
}

// ExtractModelsBatch runs ExtractModels over several images with bounded
// concurrency. Results are merged in input order without duplicates; the
// first failure cancels the rest.
func (a *Adapter) ExtractModelsBatch(ctx context.Context, imagePaths []string, mode string) ([]string, error) {
	results := make([][]string, len(imagePaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, path := range imagePaths {
		g.Go(func() error {
			models, err := a.ExtractModels(gctx, path, mode)
			if err != nil {
				return err
			}
			results[i] = models
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []string
	for _, models := range results {
		merged = append(merged, models...)
	}
	return Distinct(merged), nil
}

// Distinct trims names, drops empties and keeps the first occurrence of each.
func Distinct(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func withMode(err error, mode string) error {
	var ocrErr *domain.OCRError
	if errors.As(err, &ocrErr) && ocrErr.Mode == "" {
		ocrErr.Mode = mode
	}
	return err
}

func withPath(err error, path string) error {
	var ocrErr *domain.OCRError
	if errors.As(err, &ocrErr) && ocrErr.Path == "" {
		ocrErr.Path = path
	}
	return err
}
