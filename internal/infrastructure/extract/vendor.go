package extract

import (
	"net/url"
	"strings"

	"github.com/doeshing/formatapi/internal/domain"
)

// DetectVendor maps the URL host (first) or the key prefix (second) to a
// known vendor tag, falling back to "custom".
func DetectVendor(baseURL, apiKey string) string {
	if baseURL != "" {
		host := strings.ToLower(baseURL)
		if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
			host = strings.ToLower(u.Host + u.Path)
		}
		for _, v := range domain.Vendors {
			for _, kw := range v.URLKeywords {
				if strings.Contains(host, kw) {
					return v.Name
				}
			}
		}
	}
	if apiKey != "" {
		for _, v := range domain.Vendors {
			for _, prefix := range v.KeyPrefixes {
				if strings.HasPrefix(apiKey, prefix) {
					return v.Name
				}
			}
		}
	}
	return domain.VendorCustom
}
