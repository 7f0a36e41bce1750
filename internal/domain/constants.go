package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for files that hold secrets (rw-------)
	SecureFilePermissions = 0o600
)

// Storage file names under Config.Storage.Dir.
const (
	ConfigFile    = "config.yaml"
	HistoryFile   = "history.json"
	HistoryDBFile = "history.db"
	TemplatesFile = "templates.json"
	OCRCacheDir   = "cache/ocr"
	// CorruptSuffix is appended to a document that failed to decode before it is replaced.
	CorruptSuffix = ".corrupt"
)

// Defaults
const (
	DefaultOutputFormat      = "env"
	DefaultOCRMode           = "system"
	DefaultHistoryMaxEntries = 100
	DefaultOCRConcurrency    = 4
	DefaultListen            = "127.0.0.1:8787"
	DefaultVisionMaxTokens   = 2000
	DefaultHistoryLimit      = 20
	DefaultOCRCacheTTL       = "24h"
	DefaultOCRCacheEntries   = 200
)

// Timeout constants
const (
	// DefaultOCRTimeout bounds remote vision calls made by the CLI.
	DefaultOCRTimeout = 90 * time.Second
	// DefaultHTTPClientTimeout is the timeout for outbound HTTP client requests
	DefaultHTTPClientTimeout = 60 * time.Second
)

// TimestampFormat renders record timestamps for humans.
const TimestampFormat = time.RFC3339
