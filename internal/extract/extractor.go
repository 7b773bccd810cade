// Package extract pulls readable text content out of web pages. Two
// extractors are available: a local readability pass over the fetched HTML,
// and the Jina reader API which returns markdown. A retry policy wraps them
// with backoff and a one-shot fallback from readability to Jina.
package extract

import (
	"context"
	"strings"
)

// Method identifiers, persisted in config as the default extraction method.
const (
	MethodReadability = "readability"
	MethodJina        = "jina"
)

// Extractor turns a page URL into readable text content.
type Extractor interface {
	// Name returns the method identifier for logging and cache metadata.
	Name() string
	// Extract fetches and extracts the page. The returned string is
	// markdown or plain text depending on the method.
	Extract(ctx context.Context, pageURL string) (string, error)
}

// isRestrictedURL reports whether a URL points somewhere extraction can
// never work (browser-internal and non-http schemes).
func isRestrictedURL(pageURL string) bool {
	for _, prefix := range []string{"chrome://", "chrome-extension://", "about:", "edge://", "file://"} {
		if strings.HasPrefix(pageURL, prefix) {
			return true
		}
	}
	return !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://")
}
