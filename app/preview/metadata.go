package preview

import (
	"bytes"
	"cmp"
	"encoding/json"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/unicode/norm"
)

var (
	newlinePattern    = regexp.MustCompile(`\n+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// linkedData is the subset of an application/ld+json block we care about.
// Pages embed these in wildly varying shapes; anything unparsable simply
// degrades to "no structured data".
type linkedData struct {
	Headline            string `json:"headline"`
	AlternativeHeadline string `json:"alternativeHeadline"`
	Description         string `json:"description"`
	Abstract            string `json:"abstract"`
	DatePublished       string `json:"datePublished"`
	DateCreated         string `json:"dateCreated"`
	DateModified        string `json:"dateModified"`
}

// ParseMetadata extracts best-effort metadata from an HTML document.
// Each field is resolved through an ordered list of candidate sources; the
// first present candidate wins and later ones are not consulted.
func ParseMetadata(body []byte, pageURL string) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, err
	}

	ld := parseLinkedData(doc)

	title := firstMetaContent(doc,
		`meta[property="og:title"]`,
		`meta[name="twitter:title"], meta[property="twitter:title"]`,
		`meta[name="title"]`,
		`meta[name="DC.title"]`,
	)
	if title == "" {
		title = cmp.Or(ld.Headline, ld.AlternativeHeadline)
	}
	if title == "" {
		title = doc.Find("title").First().Text()
	}

	description := firstMetaContent(doc,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"], meta[property="twitter:description"]`,
		`meta[name="description"]`,
		`meta[name="DC.description"]`,
	)
	if description == "" {
		description = cmp.Or(ld.Description, ld.Abstract)
	}
	if description == "" {
		description = readableExcerpt(body, pageURL)
	}

	publishedAt := firstDate(
		metaContent(doc, `meta[property="article:published_time"]`),
		metaContent(doc, `meta[name="date"]`),
		metaContent(doc, `meta[name="DC.date"]`),
		ld.DatePublished,
		ld.DateCreated,
		ld.DateModified,
	)

	return Metadata{
		Title:       Sanitize(title),
		Description: Sanitize(description),
		PublishedAt: publishedAt,
	}, nil
}

// Sanitize collapses newline runs to a single space, squeezes remaining
// whitespace, trims the ends, and NFC-normalizes so rune-based truncation
// doesn't split combining sequences.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = newlinePattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return content
}

func firstMetaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content := metaContent(doc, selector); content != "" {
			return content
		}
	}
	return ""
}

func firstDate(candidates ...string) *time.Time {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		parsed, err := dateparse.ParseAny(candidate)
		if err != nil {
			// Malformed date, try the next candidate.
			continue
		}
		return &parsed
	}
	return nil
}

func parseLinkedData(doc *goquery.Document) linkedData {
	var merged linkedData

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, block := range decodeLinkedData(s.Text()) {
			mergeLinkedData(&merged, block)
		}
		// Stop once a headline-bearing block has been found.
		return merged.Headline == "" && merged.AlternativeHeadline == ""
	})

	return merged
}

// decodeLinkedData accepts the three shapes seen in the wild: a single
// object, an array of objects, and an object wrapping a @graph array.
func decodeLinkedData(raw string) []linkedData {
	var single struct {
		linkedData
		Graph []linkedData `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if len(single.Graph) > 0 {
			return single.Graph
		}
		return []linkedData{single.linkedData}
	}

	var many []linkedData
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		return many
	}

	slog.Debug("Unparsable ld+json block, ignoring")
	return nil
}

func mergeLinkedData(dst *linkedData, src linkedData) {
	dst.Headline = cmp.Or(dst.Headline, src.Headline)
	dst.AlternativeHeadline = cmp.Or(dst.AlternativeHeadline, src.AlternativeHeadline)
	dst.Description = cmp.Or(dst.Description, src.Description)
	dst.Abstract = cmp.Or(dst.Abstract, src.Abstract)
	dst.DatePublished = cmp.Or(dst.DatePublished, src.DatePublished)
	dst.DateCreated = cmp.Or(dst.DateCreated, src.DateCreated)
	dst.DateModified = cmp.Or(dst.DateModified, src.DateModified)
}

// readableExcerpt runs the readability algorithm over the page and returns
// its excerpt, for pages that carry no description metadata at all.
func readableExcerpt(body []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		slog.Debug("Content extraction failed", "url", pageURL, "error", err)
		return ""
	}

	return article.Excerpt
}
