package preview

import (
	"context"
	"regexp"
	"strings"
)

var _ Extractor = (*NprExtractor)(nil)

var nprStoryPattern = regexp.MustCompile(`npr\.org.*/\d{4}/\d{2}/\d{2}/(\d+)`)

// NprExtractor rewrites article links to the text-only mirror and hands the
// rewritten URL to the generic extractor.
type NprExtractor struct {
	generic *GenericExtractor
}

func NewNprExtractor(generic *GenericExtractor) *NprExtractor {
	return &NprExtractor{generic: generic}
}

func (e *NprExtractor) CanHandle(domain string) bool {
	return strings.HasSuffix(domain, "npr.org")
}

func (e *NprExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	mirrorURL, ok := mirrorStoryURL(rawURL)
	if !ok {
		return "", nil
	}
	return e.generic.Extract(ctx, mirrorURL)
}

// mirrorStoryURL maps a dated story URL onto the text-only mirror.
// Mirror URLs pass through unchanged.
func mirrorStoryURL(rawURL string) (string, bool) {
	if strings.Contains(rawURL, "text.npr.org") {
		return rawURL, true
	}
	m := nprStoryPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return "https://text.npr.org/" + m[1], true
}
