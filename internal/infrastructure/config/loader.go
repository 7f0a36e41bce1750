package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/pkg/filesystem"
	"github.com/doeshing/formatapi/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "FORMATAPI_CONFIG"

// FileLoader loads YAML configuration from ~/.formatapi/config.yaml (overridable via FORMATAPI_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path falls back to the environment and then the default.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created with defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeConfig(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return HydrateDefaults(cfg), nil
}

// Save writes cfg back to the resolved path.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeConfig(path, cfg)
}

// Path resolves the config file location.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(DefaultDir(), domain.ConfigFile)
}

// DefaultDir is ~/.formatapi.
func DefaultDir() string {
	return filepath.Join(filesystem.UserHomeDir(), ".formatapi")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeConfig(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences: domain.Preferences{
			OutputFormat: domain.DefaultOutputFormat,
			OCRMode:      domain.DefaultOCRMode,
		},
		Storage: domain.StorageSettings{
			Dir:               DefaultDir(),
			HistoryBackend:    domain.HistoryBackendJSON,
			HistoryMaxEntries: domain.DefaultHistoryMaxEntries,
		},
		OCR: domain.OCRSettings{
			Concurrency: domain.DefaultOCRConcurrency,
			Tesseract: domain.TesseractSettings{
				Binary:   "tesseract",
				Language: "eng",
			},
			AI: domain.VisionSettings{
				BaseURL:    "https://api.openai.com/v1",
				Model:      "gpt-4o-mini",
				AuthEnvVar: "OPENAI_API_KEY",
			},
			Gemini: domain.VisionSettings{
				Model:      "gemini-2.0-flash",
				AuthEnvVar: "GOOGLE_API_KEY",
			},
			Cache: domain.OCRCacheSettings{
				TTL:        domain.DefaultOCRCacheTTL,
				MaxEntries: domain.DefaultOCRCacheEntries,
			},
		},
		Server: domain.ServerSettings{
			Listen: domain.DefaultListen,
		},
	}
}

// HydrateDefaults fills fields a partial config file left empty.
// history_max_entries is kept as written: 0 means unlimited.
func HydrateDefaults(cfg domain.Config) domain.Config {
	def := DefaultConfig()
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = def.ConfigFormatVersion
	}
	if cfg.Preferences.OutputFormat == "" {
		cfg.Preferences.OutputFormat = def.Preferences.OutputFormat
	}
	if cfg.Preferences.OCRMode == "" {
		cfg.Preferences.OCRMode = def.Preferences.OCRMode
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}
	cfg.Storage.Dir = filesystem.ExpandPath(cfg.Storage.Dir)
	if cfg.Storage.HistoryBackend == "" {
		cfg.Storage.HistoryBackend = def.Storage.HistoryBackend
	}
	cfg.Storage.HistoryBackend = strings.ToLower(cfg.Storage.HistoryBackend)
	if cfg.OCR.Concurrency == 0 {
		cfg.OCR.Concurrency = def.OCR.Concurrency
	}
	if cfg.OCR.Tesseract.Binary == "" {
		cfg.OCR.Tesseract.Binary = def.OCR.Tesseract.Binary
	}
	if cfg.OCR.AI.Model == "" {
		cfg.OCR.AI.Model = def.OCR.AI.Model
	}
	if cfg.OCR.AI.AuthEnvVar == "" && cfg.OCR.AI.APIKey == "" {
		cfg.OCR.AI.AuthEnvVar = def.OCR.AI.AuthEnvVar
	}
	if cfg.OCR.Gemini.Model == "" {
		cfg.OCR.Gemini.Model = def.OCR.Gemini.Model
	}
	if cfg.OCR.Gemini.AuthEnvVar == "" && cfg.OCR.Gemini.APIKey == "" {
		cfg.OCR.Gemini.AuthEnvVar = def.OCR.Gemini.AuthEnvVar
	}
	if cfg.OCR.Cache.TTL == "" {
		cfg.OCR.Cache.TTL = def.OCR.Cache.TTL
	}
	if cfg.OCR.Cache.MaxEntries == 0 {
		cfg.OCR.Cache.MaxEntries = def.OCR.Cache.MaxEntries
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = def.Server.Listen
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
