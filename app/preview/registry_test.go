package preview

import (
	"context"
	"testing"
)

// stubExtractor claims a single domain and replies with a fixed string.
type stubExtractor struct {
	domain string
	reply  string
	err    error
	calls  int
}

var _ Extractor = (*stubExtractor)(nil)

func (s *stubExtractor) CanHandle(domain string) bool {
	return domain == s.domain
}

func (s *stubExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestRegistryResolveFirstMatch(t *testing.T) {
	first := &stubExtractor{domain: "shared.org", reply: "first"}
	second := &stubExtractor{domain: "shared.org", reply: "second"}
	registry := NewRegistry(first, second)

	resolved := registry.Resolve("shared.org")
	if resolved != Extractor(first) {
		t.Error("Expected the first registered extractor to win")
	}
}

func TestRegistryResolveNone(t *testing.T) {
	registry := NewRegistry(&stubExtractor{domain: "one.org"})
	if resolved := registry.Resolve("other.org"); resolved != nil {
		t.Errorf("Expected nil for an unclaimed domain, got %v", resolved)
	}
}

func TestRegistryEmpty(t *testing.T) {
	registry := NewRegistry()
	if resolved := registry.Resolve("any.org"); resolved != nil {
		t.Error("Empty registry must resolve nothing")
	}
}
