package domain

// Config mirrors ~/.formatapi/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Preferences         Preferences     `yaml:"preferences"`
	Storage             StorageSettings `yaml:"storage"`
	OCR                 OCRSettings     `yaml:"ocr"`
	Server              ServerSettings  `yaml:"server"`
}

// Preferences captures user level defaults.
type Preferences struct {
	OutputFormat string `yaml:"output_format"`
	OCRMode      string `yaml:"ocr_mode"`
}

// StorageSettings locates the history and template documents.
type StorageSettings struct {
	Dir               string `yaml:"dir"`
	HistoryBackend    string `yaml:"history_backend"`
	HistoryMaxEntries int    `yaml:"history_max_entries"`
}

// OCRSettings configures the recognition engines.
type OCRSettings struct {
	Concurrency int               `yaml:"concurrency"`
	Tesseract   TesseractSettings `yaml:"tesseract"`
	AI          VisionSettings    `yaml:"ai"`
	Gemini      VisionSettings    `yaml:"gemini"`
	// Prompt optionally overrides the vision prompt (Twig syntax).
	Prompt string           `yaml:"prompt,omitempty"`
	Cache  OCRCacheSettings `yaml:"cache"`
}

// OCRCacheSettings controls the on-disk cache of recognition results.
type OCRCacheSettings struct {
	Disabled   bool   `yaml:"disabled,omitempty"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// TesseractSettings configures the local tesseract binary.
type TesseractSettings struct {
	Binary   string `yaml:"binary"`
	Language string `yaml:"language"`
}

// VisionSettings configures a remote vision model used as an OCR engine.
type VisionSettings struct {
	BaseURL    string `yaml:"base_url,omitempty"`
	Model      string `yaml:"model"`
	AuthEnvVar string `yaml:"auth_env_var"`
	APIKey     string `yaml:"api_key,omitempty"`
	MaxTokens  int    `yaml:"max_tokens,omitempty"`
}

// ServerSettings configures `formatapi serve`.
type ServerSettings struct {
	Listen string `yaml:"listen"`
}
