package preview

import (
	"regexp"
	"strings"
)

// urlPattern matches the first thing that looks vaguely like a URL:
// http(s):// followed by Unicode letters, digits, URL punctuation ($-_ is a
// character range covering /:?=&#; and friends), or percent-encoded octets.
var urlPattern = regexp.MustCompile(`https?://(?:[\p{L}\p{N}$-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)

var schemePattern = regexp.MustCompile(`^https?://`)

// FindURL returns the first URL found in text, or the empty string.
func FindURL(text string) string {
	return urlPattern.FindString(text)
}

// DomainOf derives the lowercase host portion of a URL: scheme stripped,
// everything after the first slash dropped, then everything after the first
// colon (the port) dropped. Pure string surgery, never fails; garbage in
// yields a garbage domain that downstream checks reject.
func DomainOf(rawURL string) string {
	domain := schemePattern.ReplaceAllString(rawURL, "")
	if i := strings.Index(domain, "/"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	return strings.ToLower(domain)
}
