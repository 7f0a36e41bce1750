package extract

import (
	"github.com/doeshing/formatapi/internal/domain"
)

// Parse turns free-form text into a Record. It never fails: fields that
// cannot be recognised are left empty. Models and Timestamp are not set.
func Parse(text string) domain.Record {
	apiKey := ExtractKey(text)
	baseURL := ExtractURL(text)
	return domain.Record{
		Vendor:  DetectVendor(baseURL, apiKey),
		BaseURL: baseURL,
		APIKey:  apiKey,
		Models:  []string{},
	}
}

// Analyze parses text and also reports every URL and key candidate seen,
// deduplicated and in discovery order (extractor order, then position).
func Analyze(text string) domain.ParseResult {
	result := domain.ParseResult{
		Record:        Parse(text),
		URLCandidates: []domain.Candidate{},
		KeyCandidates: []domain.Candidate{},
	}

	seen := map[string]bool{}
	for _, span := range FindURLs(text) {
		if seen[span.Value] {
			continue
		}
		seen[span.Value] = true
		result.URLCandidates = append(result.URLCandidates, domain.Candidate{Value: span.Value, Score: ScoreURL(span.Value)})
	}

	seen = map[string]bool{}
	for _, ex := range KeyExtractors {
		for _, span := range ex.Find(text) {
			if seen[span.Value] {
				continue
			}
			seen[span.Value] = true
			result.KeyCandidates = append(result.KeyCandidates, domain.Candidate{Value: span.Value, Score: ex.Score})
		}
	}
	return result
}
