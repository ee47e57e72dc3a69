package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestYoutubeCanHandle(t *testing.T) {
	extractor := NewYoutubeExtractor(http.DefaultClient, newFakeSettings())
	tests := []struct {
		domain   string
		expected bool
	}{
		{"youtube.com", true},
		{"www.youtube.com", true},
		{"m.youtube.com", true},
		{"youtu.be", true},
		{"example.org", false},
	}

	for _, tt := range tests {
		if got := extractor.CanHandle(tt.domain); got != tt.expected {
			t.Errorf("CanHandle(%q) = %v, expected %v", tt.domain, got, tt.expected)
		}
	}
}

func TestFindVideoID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
		ok       bool
	}{
		{"https://youtu.be/abc-DEF_123", "abc-DEF_123", true},
		{"https://www.youtube.com/watch?v=abc-DEF_123", "abc-DEF_123", true},
		{"https://www.youtube.com/watch?t=10&v=abc-DEF_123", "abc-DEF_123", true},
		{"https://www.youtube.com/feed/subscriptions", "", false},
	}

	for _, tt := range tests {
		id, ok := findVideoID(tt.url)
		if ok != tt.ok || id != tt.expected {
			t.Errorf("findVideoID(%q) = (%q, %v), expected (%q, %v)", tt.url, id, ok, tt.expected, tt.ok)
		}
	}
}

func TestRemapVideoID(t *testing.T) {
	if got := remapVideoID("abc-DEF_123"); got != "abc-DEF_123" {
		t.Errorf("Ordinary ids must pass through, got %q", got)
	}

	remapped := remapVideoID("dQw4w9WgXcQ")
	if remapped == "dQw4w9WgXcQ" {
		t.Error("Overplayed id must be remapped")
	}
	found := false
	for _, id := range replacementVideoIDs {
		if id == remapped {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Remapped id %q is not from the replacement set", remapped)
	}
}

func TestYoutubeExtractDisabled(t *testing.T) {
	extractor := NewYoutubeExtractor(http.DefaultClient, newFakeSettings())

	reply, err := extractor.Extract(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Expected no error when disabled, got: %v", err)
	}
	if reply != "" {
		t.Errorf("Expected no preview when disabled, got %q", reply)
	}
}

func TestYoutubeExtractVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "abc123" {
			t.Errorf("Unexpected video id: %s", r.URL.Query().Get("id"))
		}
		if r.URL.Query().Get("key") != "key123" {
			t.Errorf("Unexpected API key: %s", r.URL.Query().Get("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"pageInfo": {"totalResults": 1},
			"items": [{
				"snippet": {
					"title": "A Video",
					"channelTitle": "Some Channel",
					"publishedAt": "2023-01-01T00:00:00Z",
					"liveBroadcastContent": "none"
				},
				"statistics": {"viewCount": "1234567", "likeCount": "99", "dislikeCount": "1"}
			}]
		}`))
	}))
	defer server.Close()

	settings := newFakeSettings()
	settings.bools["/youtube_enabled"] = true
	settings.secrets["youtube_api_token"] = "key123"

	extractor := NewYoutubeExtractor(server.Client(), settings)
	extractor.apiBase = server.URL

	reply, err := extractor.Extract(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(reply, "Some Channel: **A Video** Views: **1,234,567** Rating: **99%** (") {
		t.Errorf("Unexpected video preview: %q", reply)
	}
	if !strings.Contains(reply, "ago)") {
		t.Errorf("Expected a relative timestamp, got %q", reply)
	}
}

func TestYoutubeExtractLiveVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"pageInfo": {"totalResults": 1},
			"items": [{
				"snippet": {
					"title": "Live Stream",
					"channelTitle": "Some Channel",
					"publishedAt": "2023-01-01T00:00:00Z",
					"liveBroadcastContent": "live"
				},
				"statistics": {"viewCount": "42"}
			}]
		}`))
	}))
	defer server.Close()

	settings := newFakeSettings()
	settings.bools["/youtube_enabled"] = true
	settings.secrets["youtube_api_token"] = "key123"

	extractor := NewYoutubeExtractor(server.Client(), settings)
	extractor.apiBase = server.URL

	reply, err := extractor.Extract(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if reply != "Some Channel: **Live Stream** Views: **42** (🔴 LIVE)" {
		t.Errorf("Unexpected live preview: %q", reply)
	}
}

func TestYoutubeExtractNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pageInfo": {"totalResults": 0}, "items": []}`))
	}))
	defer server.Close()

	settings := newFakeSettings()
	settings.bools["/youtube_enabled"] = true
	settings.secrets["youtube_api_token"] = "key123"

	extractor := NewYoutubeExtractor(server.Client(), settings)
	extractor.apiBase = server.URL

	_, err := extractor.Extract(context.Background(), "https://youtu.be/doesnotexist")
	if err == nil {
		t.Fatal("Expected an error for zero results")
	}
}
