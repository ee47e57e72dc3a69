package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/link-comb/app/database"
	"github.com/lysyi3m/link-comb/app/preview"
	"github.com/lysyi3m/link-comb/app/relay"
	"github.com/lysyi3m/link-comb/app/tasks"
)

type fakeDispatcher struct {
	reply string
	stats preview.Stats
}

func (f *fakeDispatcher) Run(ctx context.Context, channelID, text string) string {
	return f.reply
}

func (f *fakeDispatcher) Snapshot() preview.Stats {
	return f.stats
}

type fakeScheduler struct {
	enqueued   []tasks.TaskInterface
	enqueueErr error
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}

func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, task)
	return nil
}

func (f *fakeScheduler) QueueLength() int {
	return len(f.enqueued)
}

type fakeSettingsRepo struct {
	settings []database.Setting
	setErr   error
	lastSet  [3]string
}

func (f *fakeSettingsRepo) GetBool(scope, key string, def bool) bool { return def }
func (f *fakeSettingsRepo) GetSecret(key string) string              { return "" }

func (f *fakeSettingsRepo) Get(scope, key string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeSettingsRepo) Set(scope, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.lastSet = [3]string{scope, key, value}
	return nil
}

func (f *fakeSettingsRepo) All() ([]database.Setting, error) {
	return f.settings, nil
}

type fakeReplier struct{}

func (f *fakeReplier) Send(ctx context.Context, channelID, text string) error {
	return nil
}

func newTestServer(dispatcher *fakeDispatcher, scheduler *fakeScheduler, repo *fakeSettingsRepo, async bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	var replier relay.Replier
	if async {
		replier = &fakeReplier{}
	}

	handler := NewHandler(dispatcher, repo, scheduler, replier, "test")
	return NewServer(handler, "secret-key")
}

func TestPostMessageSync(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "Preview: **Hello World**"}
	server := newTestServer(dispatcher, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	body := `{"channel_id": "#chat", "text": "https://news.site/x"}`
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["reply"] != "Preview: **Hello World**" {
		t.Errorf("Unexpected reply: %q", resp["reply"])
	}
	if resp["channel_id"] != "#chat" {
		t.Errorf("Unexpected channel: %q", resp["channel_id"])
	}
}

func TestPostMessageSyncNoPreview(t *testing.T) {
	server := newTestServer(&fakeDispatcher{reply: ""}, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	body := `{"channel_id": "#chat", "text": "no links"}`
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
}

func TestPostMessageAsync(t *testing.T) {
	scheduler := &fakeScheduler{}
	server := newTestServer(&fakeDispatcher{}, scheduler, &fakeSettingsRepo{}, true)

	body := `{"channel_id": "#chat", "text": "https://news.site/x"}`
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected one enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetChannelID() != "#chat" {
		t.Errorf("Unexpected task channel: %q", scheduler.enqueued[0].GetChannelID())
	}
}

func TestPostMessageQueueFull(t *testing.T) {
	scheduler := &fakeScheduler{enqueueErr: errors.New("task queue is full")}
	server := newTestServer(&fakeDispatcher{}, scheduler, &fakeSettingsRepo{}, true)

	body := `{"channel_id": "#chat", "text": "https://news.site/x"}`
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestPostMessageMissingFields(t *testing.T) {
	server := newTestServer(&fakeDispatcher{}, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	req := httptest.NewRequest("POST", "/messages", strings.NewReader(`{"text": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	server := newTestServer(&fakeDispatcher{}, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("Expected version 'test', got %v", resp["version"])
	}
}

func TestGetStats(t *testing.T) {
	dispatcher := &fakeDispatcher{stats: preview.Stats{Messages: 10, Matched: 4, Previews: 3, Failures: 1}}
	server := newTestServer(dispatcher, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats preview.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats != dispatcher.stats {
		t.Errorf("Expected %+v, got %+v", dispatcher.stats, stats)
	}
}

func TestListSettingsRequiresAuth(t *testing.T) {
	server := newTestServer(&fakeDispatcher{}, &fakeScheduler{}, &fakeSettingsRepo{}, false)

	req := httptest.NewRequest("GET", "/api/settings", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without a key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/settings", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with a wrong key, got %d", w.Code)
	}
}

func TestListSettingsRedactsSecrets(t *testing.T) {
	repo := &fakeSettingsRepo{settings: []database.Setting{
		{Scope: "", Key: "twitter_api_token", Value: "super-secret"},
		{Scope: "", Key: "generic_enabled", Value: "true"},
	}}
	server := newTestServer(&fakeDispatcher{}, &fakeScheduler{}, repo, false)

	req := httptest.NewRequest("GET", "/api/settings", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "super-secret") {
		t.Error("Secret value must not appear in the response")
	}
	if !strings.Contains(body, "<redacted>") {
		t.Error("Expected the secret to be redacted")
	}
	if !strings.Contains(body, `"value":"true"`) {
		t.Error("Non-secret values must pass through unredacted")
	}
}

func TestSetSetting(t *testing.T) {
	repo := &fakeSettingsRepo{}
	server := newTestServer(&fakeDispatcher{}, &fakeScheduler{}, repo, false)

	body := `{"scope": "#chat", "key": "enabled", "value": "false"}`
	req := httptest.NewRequest("PUT", "/api/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}
	if repo.lastSet != [3]string{"#chat", "enabled", "false"} {
		t.Errorf("Unexpected stored setting: %v", repo.lastSet)
	}
}
