// Package engine is the command surface of formatapi: it parses text, formats
// records, runs OCR and owns the history and template stores.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/extract"
	"github.com/doeshing/formatapi/internal/infrastructure/formatter"
	"github.com/doeshing/formatapi/internal/infrastructure/template"
	"github.com/doeshing/formatapi/internal/ports"
)

// Service holds the two store handles and the OCR adapter. Every
// read-modify-write runs inside the store's own write lock, so concurrent
// requests cannot lose each other's updates.
type Service struct {
	History   ports.HistoryRepository
	Templates ports.TemplateRepository
	OCR       ports.ModelExtractor
	Clock     *Clock
	Logger    ports.Logger
}

// FormatRequest is the input of FormatOutput.
type FormatRequest struct {
	Vendor         string   `json:"vendor"`
	BaseURL        string   `json:"base_url"`
	APIKey         string   `json:"api_key"`
	Models         []string `json:"models"`
	FormatType     string   `json:"format_type"`
	CustomTemplate string   `json:"custom_template,omitempty"`
}

// Record converts the request fields into a record.
func (r FormatRequest) Record() domain.Record {
	return domain.Record{Vendor: r.Vendor, BaseURL: r.BaseURL, APIKey: r.APIKey, Models: r.Models}.Normalized()
}

var errNotReady = errors.New("engine.Service dependencies not satisfied")

func (s *Service) storesReady() error {
	if s.History == nil || s.Templates == nil || s.Clock == nil || s.Logger == nil {
		return errNotReady
	}
	return nil
}

// ParseText never fails; unrecognised fields stay empty.
func (s *Service) ParseText(text string) domain.Record {
	return extract.Parse(text)
}

// AnalyzeText parses text and reports the scored candidates.
func (s *Service) AnalyzeText(text string) domain.ParseResult {
	return extract.Analyze(text)
}

// FormatOutput renders the request with a built-in driver or a custom template.
func (s *Service) FormatOutput(req FormatRequest) (string, error) {
	return formatter.Output(req.Record(), req.FormatType, req.CustomTemplate)
}

// ExtractModels runs OCR on one image. It holds no store lock.
func (s *Service) ExtractModels(ctx context.Context, imagePath, mode string) ([]string, error) {
	if s.OCR == nil {
		return nil, &domain.OCRError{Kind: domain.OCRUnavailable, Mode: mode, Path: imagePath, Err: errors.New("no OCR adapter configured")}
	}
	return s.OCR.ExtractModels(ctx, imagePath, mode)
}

// ExtractModelsBatch runs OCR on several images and merges the names.
func (s *Service) ExtractModelsBatch(ctx context.Context, imagePaths []string, mode string) ([]string, error) {
	if s.OCR == nil {
		return nil, &domain.OCRError{Kind: domain.OCRUnavailable, Mode: mode, Err: errors.New("no OCR adapter configured")}
	}
	if len(imagePaths) == 1 {
		return s.OCR.ExtractModels(ctx, imagePaths[0], mode)
	}
	return s.OCR.ExtractModelsBatch(ctx, imagePaths, mode)
}

// LoadHistory returns the stored records, oldest first. A corrupt store
// yields an empty list together with an error matching domain.ErrCorruptStore.
func (s *Service) LoadHistory() ([]domain.Record, error) {
	if err := s.storesReady(); err != nil {
		return nil, err
	}
	records, err := s.History.Load()
	if err != nil {
		s.reportLoadError("history", s.History.Path(), err)
		if records == nil {
			records = []domain.Record{}
		}
		return records, err
	}
	return records, nil
}

// SaveHistory replaces the whole history.
func (s *Service) SaveHistory(records []domain.Record) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	if err := s.History.ReplaceAll(records); err != nil {
		s.Logger.Error("save history failed", err, map[string]interface{}{"path": s.History.Path()})
		return err
	}
	for _, r := range records {
		s.Clock.Observe(r.Timestamp)
	}
	return nil
}

// AddHistoryItem appends record. The caller supplies a fresh timestamp.
func (s *Service) AddHistoryItem(record domain.Record) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	if err := s.History.Add(record); err != nil {
		if !errors.Is(err, domain.ErrDuplicateTimestamp) {
			s.Logger.Error("add history failed", err, map[string]interface{}{"path": s.History.Path()})
		}
		return err
	}
	s.Clock.Observe(record.Timestamp)
	return nil
}

// ClearHistory empties the history store.
func (s *Service) ClearHistory() error {
	if err := s.storesReady(); err != nil {
		return err
	}
	return s.History.Clear()
}

// DeleteHistoryItem removes the record with timestamp ts.
func (s *Service) DeleteHistoryItem(ts int64) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	if err := s.History.Delete(ts); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.Logger.Error("delete history item failed", err, map[string]interface{}{"path": s.History.Path(), "timestamp": ts})
		}
		return err
	}
	return nil
}

// HistoryItem returns the record with timestamp ts.
func (s *Service) HistoryItem(ts int64) (domain.Record, error) {
	records, err := s.LoadHistory()
	if err != nil {
		return domain.Record{}, err
	}
	for _, r := range records {
		if r.Timestamp == ts {
			return r, nil
		}
	}
	return domain.Record{}, fmt.Errorf("history item %d: %w", ts, domain.ErrNotFound)
}

// CaptureText parses text and appends the record with a fresh timestamp.
func (s *Service) CaptureText(text string) (domain.Record, error) {
	if err := s.storesReady(); err != nil {
		return domain.Record{}, err
	}
	return s.capture(extract.Parse(text), "text")
}

// CaptureImage OCRs the images, merges the model names into the record
// parsed from text (which may be empty) and appends it.
func (s *Service) CaptureImage(ctx context.Context, text string, imagePaths []string, mode string) (domain.Record, error) {
	if err := s.storesReady(); err != nil {
		return domain.Record{}, err
	}
	models, err := s.ExtractModelsBatch(ctx, imagePaths, mode)
	if err != nil {
		return domain.Record{}, err
	}
	record := extract.Parse(text).WithModels(models)
	return s.capture(record, "image")
}

func (s *Service) capture(record domain.Record, source string) (domain.Record, error) {
	record = record.Normalized()
	record.Timestamp = s.Clock.Next()
	if err := s.AddHistoryItem(record); err != nil {
		return domain.Record{}, err
	}
	s.Logger.Info("record captured", map[string]interface{}{
		"source":    source,
		"timestamp": record.Timestamp,
		"vendor":    record.Vendor,
		"api_key":   domain.MaskKey(record.APIKey),
		"models":    len(record.Models),
	})
	return record, nil
}

// LoadTemplates returns the stored templates. A corrupt store yields an
// empty list together with an error matching domain.ErrCorruptStore.
func (s *Service) LoadTemplates() ([]domain.CustomTemplate, error) {
	if err := s.storesReady(); err != nil {
		return nil, err
	}
	templates, err := s.Templates.Load()
	if err != nil {
		s.reportLoadError("templates", s.Templates.Path(), err)
		if templates == nil {
			templates = []domain.CustomTemplate{}
		}
		return templates, err
	}
	return templates, nil
}

// SaveTemplates replaces the whole template list.
func (s *Service) SaveTemplates(templates []domain.CustomTemplate) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	if err := s.Templates.ReplaceAll(templates); err != nil {
		s.Logger.Error("save templates failed", err, map[string]interface{}{"path": s.Templates.Path()})
		return err
	}
	return nil
}

// GeneralizeTemplate turns a concrete configuration example into a template.
func (s *Service) GeneralizeTemplate(example string) string {
	return template.Generalize(example)
}

// AddTemplate stores tpl, replacing a template with the same name. A corrupt
// template store is set aside and replaced by a list holding tpl.
func (s *Service) AddTemplate(tpl domain.CustomTemplate) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	tpl.Name = strings.TrimSpace(tpl.Name)
	if tpl.Name == "" {
		return errors.New("template name is required")
	}
	s.warnIfCorrupt()
	return s.updateTemplates(func(templates []domain.CustomTemplate) ([]domain.CustomTemplate, error) {
		replaced := false
		for i := range templates {
			if templates[i].Name == tpl.Name {
				templates[i] = tpl
				replaced = true
			}
		}
		if !replaced {
			templates = append(templates, tpl)
		}
		return templates, nil
	})
}

// DeleteTemplate removes every template called name.
func (s *Service) DeleteTemplate(name string) error {
	if err := s.storesReady(); err != nil {
		return err
	}
	s.warnIfCorrupt()
	return s.updateTemplates(func(templates []domain.CustomTemplate) ([]domain.CustomTemplate, error) {
		kept := make([]domain.CustomTemplate, 0, len(templates))
		for _, t := range templates {
			if t.Name != name {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(templates) {
			return nil, fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
		}
		return kept, nil
	})
}

func (s *Service) updateTemplates(fn func([]domain.CustomTemplate) ([]domain.CustomTemplate, error)) error {
	if err := s.Templates.Update(fn); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.Logger.Error("update templates failed", err, map[string]interface{}{"path": s.Templates.Path()})
		}
		return err
	}
	return nil
}

// warnIfCorrupt logs a corrupt template store before an update replaces it.
func (s *Service) warnIfCorrupt() {
	if _, err := s.Templates.Load(); err != nil && errors.Is(err, domain.ErrCorruptStore) {
		s.Logger.Warn("template store is corrupt; moving it aside", map[string]interface{}{
			"path":  s.Templates.Path(),
			"error": err.Error(),
		})
	}
}

// Template returns the template called name.
func (s *Service) Template(name string) (domain.CustomTemplate, error) {
	templates, err := s.LoadTemplates()
	if err != nil {
		return domain.CustomTemplate{}, err
	}
	for _, t := range templates {
		if t.Name == name {
			return t, nil
		}
	}
	return domain.CustomTemplate{}, fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
}

func (s *Service) reportLoadError(store, path string, err error) {
	fields := map[string]interface{}{"store": store, "path": path, "error": err.Error()}
	if errors.Is(err, domain.ErrCorruptStore) {
		s.Logger.Warn("store is corrupt; treating as empty", fields)
		return
	}
	s.Logger.Error("load failed", err, fields)
}
