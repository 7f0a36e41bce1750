package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/doeshing/formatapi/internal/domain"
)

// Known values, kept here so the validator does not import infrastructure.
var (
	outputFormats   = []string{"env", "json", "yaml", "yml", "toml"}
	ocrModes        = []string{"system", "ai", "gemini"}
	historyBackends = []string{domain.HistoryBackendJSON, domain.HistoryBackendSQLite}
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validatePreferences(cfg.Preferences); err != nil {
		return err
	}
	if err := validateStorage(cfg.Storage); err != nil {
		return err
	}
	if err := validateOCR(cfg.OCR); err != nil {
		return err
	}
	if err := validateServer(cfg.Server); err != nil {
		return err
	}
	return nil
}

func validatePreferences(prefs domain.Preferences) error {
	if !oneOf(prefs.OutputFormat, outputFormats) {
		return fmt.Errorf("preferences.output_format must be one of %s, got %q", strings.Join(outputFormats, "|"), prefs.OutputFormat)
	}
	if !oneOf(prefs.OCRMode, ocrModes) {
		return fmt.Errorf("preferences.ocr_mode must be one of %s, got %q", strings.Join(ocrModes, "|"), prefs.OCRMode)
	}
	return nil
}

func validateStorage(storage domain.StorageSettings) error {
	if strings.TrimSpace(storage.Dir) == "" {
		return errors.New("storage.dir must be set")
	}
	if !oneOf(storage.HistoryBackend, historyBackends) {
		return fmt.Errorf("storage.history_backend must be json|sqlite, got %q", storage.HistoryBackend)
	}
	if storage.HistoryMaxEntries < 0 {
		return fmt.Errorf("storage.history_max_entries must be >= 0")
	}
	return nil
}

func validateOCR(ocr domain.OCRSettings) error {
	if ocr.Concurrency <= 0 {
		return fmt.Errorf("ocr.concurrency must be > 0")
	}
	if ocr.AI.BaseURL != "" {
		u, err := url.Parse(ocr.AI.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("ocr.ai.base_url must be an http(s) URL, got %q", ocr.AI.BaseURL)
		}
	}
	if ocr.AI.MaxTokens < 0 || ocr.Gemini.MaxTokens < 0 {
		return fmt.Errorf("ocr max_tokens must be >= 0")
	}
	if ocr.Cache.TTL != "" {
		if d, err := time.ParseDuration(ocr.Cache.TTL); err != nil || d < 0 {
			return fmt.Errorf("ocr.cache.ttl must be a non-negative duration, got %q", ocr.Cache.TTL)
		}
	}
	if ocr.Cache.MaxEntries < 0 {
		return fmt.Errorf("ocr.cache.max_entries must be >= 0")
	}
	return nil
}

func validateServer(server domain.ServerSettings) error {
	if _, _, err := net.SplitHostPort(server.Listen); err != nil {
		return fmt.Errorf("server.listen invalid: %w", err)
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}
