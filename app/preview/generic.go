package preview

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"
)

//go:embed blacklist.yml
var blacklistYML []byte

var domainBlacklist = mustLoadBlacklist()

func mustLoadBlacklist() []string {
	var file struct {
		Domains []string `yaml:"domains"`
	}
	if err := yaml.Unmarshal(blacklistYML, &file); err != nil {
		panic(fmt.Sprintf("embedded blacklist is malformed: %v", err))
	}
	return file.Domains
}

// GenericExtractor is the fallback of last resort: fetch the page and
// scrape whatever metadata it offers. It is not part of the registry; the
// dispatcher consults it only when no registered extractor claims a domain.
type GenericExtractor struct {
	fetcher    *Fetcher
	feedParser *gofeed.Parser
}

func NewGenericExtractor(fetcher *Fetcher) *GenericExtractor {
	return &GenericExtractor{
		fetcher:    fetcher,
		feedParser: gofeed.NewParser(),
	}
}

// CanHandle reports whether a domain is eligible for generic extraction.
// Too-short and leading-dot domains are rejected along with every domain
// ending in a blacklisted suffix.
func (e *GenericExtractor) CanHandle(domain string) bool {
	if len(domain) < 3 || strings.HasPrefix(domain, ".") {
		return false
	}
	for _, blacklisted := range domainBlacklist {
		if strings.HasSuffix(domain, blacklisted) {
			return false
		}
	}
	return true
}

func (e *GenericExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	result, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}

	contentType := result.ContentType()
	switch {
	case contentType == "text/html" || contentType == "application/xhtml+xml":
		return e.extractHTML(result, rawURL)
	case isFeedContentType(contentType):
		return e.extractFeed(result)
	default:
		slog.Debug("Unsupported content type, skipping", "url", rawURL, "content_type", contentType)
		return "", nil
	}
}

func (e *GenericExtractor) extractHTML(result *FetchResult, rawURL string) (string, error) {
	// A failed page still gets a minimal preview so users can see why the
	// link is broken.
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return FormatPreview(Metadata{
			Title:       fmt.Sprintf("Error %d", result.StatusCode),
			Description: result.Reason(),
			Insecure:    result.Insecure,
		}), nil
	}

	meta, err := ParseMetadata(result.Body, rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	meta.Insecure = result.Insecure

	return FormatPreview(meta), nil
}

// extractFeed previews RSS/Atom documents with the feed's own metadata.
func (e *GenericExtractor) extractFeed(result *FetchResult) (string, error) {
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return "", nil
	}

	feed, err := e.feedParser.Parse(bytes.NewReader(result.Body))
	if err != nil {
		return "", fmt.Errorf("failed to parse feed: %w", err)
	}

	meta := Metadata{
		Title:       Sanitize(feed.Title),
		Description: Sanitize(feed.Description),
		Insecure:    result.Insecure,
	}
	if feed.PublishedParsed != nil {
		meta.PublishedAt = feed.PublishedParsed
	} else if feed.UpdatedParsed != nil {
		meta.PublishedAt = feed.UpdatedParsed
	}

	return FormatPreview(meta), nil
}

func isFeedContentType(contentType string) bool {
	switch contentType {
	case "application/rss+xml", "application/atom+xml", "application/xml", "text/xml":
		return true
	}
	return false
}
