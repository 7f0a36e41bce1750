// Package domain defines the core entities of formatapi.
//
// A Record is the credential/model data inferred from pasted text or an OCR'd
// image. Records are identified by their millisecond Timestamp and are treated
// as immutable once persisted.
package domain

import (
	"slices"
	"time"
)

// Record is the structured credential record produced by the parser or the
// OCR merge step. Empty BaseURL/APIKey mean the field is absent.
type Record struct {
	Timestamp int64    `json:"timestamp"`
	Vendor    string   `json:"vendor"`
	BaseURL   string   `json:"base_url,omitempty"`
	APIKey    string   `json:"api_key,omitempty"`
	Models    []string `json:"models"`
}

// WithModels returns a copy of r with models appended, skipping names that are
// already present.
func (r Record) WithModels(models []string) Record {
	merged := slices.Clone(r.Models)
	for _, m := range models {
		if m == "" || slices.Contains(merged, m) {
			continue
		}
		merged = append(merged, m)
	}
	r.Models = merged
	return r
}

// Normalized fills zero values so that serializers always see a vendor tag and
// a non-nil model list.
func (r Record) Normalized() Record {
	if r.Vendor == "" {
		r.Vendor = VendorCustom
	}
	if r.Models == nil {
		r.Models = []string{}
	}
	return r
}

// CustomTemplate is a user-authored output template containing {{placeholder}} tokens.
type CustomTemplate struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// OCRCacheEntry is a cached recognition result for one image content and mode.
type OCRCacheEntry struct {
	Key       string    `json:"key"`
	Mode      string    `json:"mode"`
	Path      string    `json:"path"`
	Models    []string  `json:"models"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is a scored extraction candidate.
type Candidate struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// ParseResult carries the parsed record along with every candidate the
// extractors saw, in discovery order.
type ParseResult struct {
	Record        Record      `json:"record"`
	URLCandidates []Candidate `json:"url_candidates"`
	KeyCandidates []Candidate `json:"key_candidates"`
}

// MaskKey hides the middle of a secret for display and logs.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "***" + key[len(key)-4:]
}
