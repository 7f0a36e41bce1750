package domain

import (
	"os"
	"path/filepath"
	"strings"
)

// History backends.
const (
	HistoryBackendJSON   = "json"
	HistoryBackendSQLite = "sqlite"
)

// HistoryPath returns the history document location for the configured backend.
func (c *Config) HistoryPath() string {
	if strings.EqualFold(c.Storage.HistoryBackend, HistoryBackendSQLite) {
		return filepath.Join(c.Storage.Dir, HistoryDBFile)
	}
	return filepath.Join(c.Storage.Dir, HistoryFile)
}

// TemplatesPath returns the template document location.
func (c *Config) TemplatesPath() string {
	return filepath.Join(c.Storage.Dir, TemplatesFile)
}

// OCRCacheDir returns the directory holding cached recognition results.
func (c *Config) OCRCacheDir() string {
	return filepath.Join(c.Storage.Dir, OCRCacheDir)
}

// ResolveKey returns the explicit key if set, otherwise the value of AuthEnvVar.
func (v VisionSettings) ResolveKey() string {
	if v.APIKey != "" {
		return v.APIKey
	}
	if v.AuthEnvVar == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(v.AuthEnvVar))
}
