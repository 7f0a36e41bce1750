package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/doeshing/formatapi/internal/application/doctor"
	"github.com/doeshing/formatapi/internal/application/engine"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cache"
	"github.com/doeshing/formatapi/internal/infrastructure/config"
	"github.com/doeshing/formatapi/internal/infrastructure/history"
	"github.com/doeshing/formatapi/internal/infrastructure/ocr"
	"github.com/doeshing/formatapi/internal/infrastructure/templates"
	"github.com/doeshing/formatapi/internal/pkg/logger"
	"github.com/doeshing/formatapi/internal/ports"
)

// Options selects the config file and log verbosity.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Engine        *engine.Service
	OCR           *ocr.Adapter
	OCRCache      *cache.FileCache
	DoctorService *doctor.Service
	HistoryStore  ports.HistoryRepository
	TemplateStore ports.TemplateRepository
	Logger        *logger.SlogLogger

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)
	c := &Container{Config: cfg, ConfigLoader: cfgLoader, Logger: log}

	c.HistoryStore = c.openHistory(cfg)
	c.TemplateStore = templates.NewFileStore(cfg.TemplatesPath())

	c.OCRCache = cache.NewFileCache(cfg.OCRCacheDir(), cfg.OCR.Cache)
	ocrOpts := []ocr.Option{ocr.WithConcurrency(cfg.OCR.Concurrency)}
	if !cfg.OCR.Cache.Disabled {
		ocrOpts = append(ocrOpts, ocr.WithCache(c.OCRCache))
	}
	c.OCR = ocr.NewAdapter(log, []ports.Recognizer{
		ocr.NewTesseract(cfg.OCR.Tesseract),
		ocr.NewOpenAIVision(cfg.OCR.AI, cfg.OCR.Prompt),
		ocr.NewGeminiVision(cfg.OCR.Gemini, cfg.OCR.Prompt),
	}, ocrOpts...)

	clock := engine.NewClock()
	if records, err := c.HistoryStore.Load(); err == nil {
		for _, r := range records {
			clock.Observe(r.Timestamp)
		}
	}

	c.Engine = &engine.Service{
		History:   c.HistoryStore,
		Templates: c.TemplateStore,
		OCR:       c.OCR,
		Clock:     clock,
		Logger:    log,
	}

	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		History:        c.HistoryStore,
		Templates:      c.TemplateStore,
		OCR:            c.OCR,
	}

	return c, nil
}

// openHistory picks the configured backend. A SQLite file that cannot be
// opened as a database falls back to the JSON document next to it.
func (c *Container) openHistory(cfg domain.Config) ports.HistoryRepository {
	maxEntries := cfg.Storage.HistoryMaxEntries
	if cfg.Storage.HistoryBackend != domain.HistoryBackendSQLite {
		return history.NewFileStore(cfg.HistoryPath(), maxEntries)
	}

	store, err := history.NewSQLiteStore(cfg.HistoryPath(), maxEntries)
	if err == nil {
		c.closers = append(c.closers, store.Close)
		return store
	}

	fallback := filepath.Join(cfg.Storage.Dir, domain.HistoryFile)
	fields := map[string]interface{}{"path": cfg.HistoryPath(), "fallback": fallback}
	if errors.Is(err, domain.ErrCorruptStore) {
		c.Logger.Warn("sqlite history is corrupt; using json store", fields)
	} else {
		c.Logger.Error("sqlite history unavailable; using json store", err, fields)
	}
	return history.NewFileStore(fallback, maxEntries)
}

// Close releases open stores.
func (c *Container) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
