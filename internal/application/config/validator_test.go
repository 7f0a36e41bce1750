package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/formatapi/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{OutputFormat: "env", OCRMode: "system"},
		Storage:     domain.StorageSettings{Dir: "/tmp/formatapi", HistoryBackend: "json", HistoryMaxEntries: 100},
		OCR: domain.OCRSettings{
			Concurrency: 4,
			AI:          domain.VisionSettings{BaseURL: "https://api.openai.com/v1"},
		},
		Server: domain.ServerSettings{Listen: "127.0.0.1:8787"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*domain.Config) {}},
		{name: "yml alias", mutate: func(c *domain.Config) { c.Preferences.OutputFormat = "YML" }},
		{name: "unknown format", mutate: func(c *domain.Config) { c.Preferences.OutputFormat = "xml" }, wantErr: "preferences.output_format"},
		{name: "unknown mode", mutate: func(c *domain.Config) { c.Preferences.OCRMode = "cloud" }, wantErr: "preferences.ocr_mode"},
		{name: "empty dir", mutate: func(c *domain.Config) { c.Storage.Dir = " " }, wantErr: "storage.dir"},
		{name: "bad backend", mutate: func(c *domain.Config) { c.Storage.HistoryBackend = "redis" }, wantErr: "storage.history_backend"},
		{name: "negative max entries", mutate: func(c *domain.Config) { c.Storage.HistoryMaxEntries = -1 }, wantErr: "history_max_entries"},
		{name: "zero concurrency", mutate: func(c *domain.Config) { c.OCR.Concurrency = 0 }, wantErr: "ocr.concurrency"},
		{name: "bad ai url", mutate: func(c *domain.Config) { c.OCR.AI.BaseURL = "api.openai.com" }, wantErr: "ocr.ai.base_url"},
		{name: "bad cache ttl", mutate: func(c *domain.Config) { c.OCR.Cache.TTL = "soon" }, wantErr: "ocr.cache.ttl"},
		{name: "negative cache ttl", mutate: func(c *domain.Config) { c.OCR.Cache.TTL = "-1h" }, wantErr: "ocr.cache.ttl"},
		{name: "negative cache entries", mutate: func(c *domain.Config) { c.OCR.Cache.MaxEntries = -1 }, wantErr: "ocr.cache.max_entries"},
		{name: "bad listen", mutate: func(c *domain.Config) { c.Server.Listen = "8787" }, wantErr: "server.listen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
