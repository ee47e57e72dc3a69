package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/lysyi3m/link-comb/app/database"
)

var _ Extractor = (*TwitterExtractor)(nil)

var (
	twitterStatusPattern  = regexp.MustCompile(`twitter\.com/\w+/status/(\d+)`)
	twitterProfilePattern = regexp.MustCompile(`twitter\.com/(\w+)`)
	trailingSegment       = regexp.MustCompile(`/\w`)
)

// TwitterExtractor previews status and profile links through the Twitter
// API v2. Disabled unless the twitter_enabled setting is on and a bearer
// token is configured.
type TwitterExtractor struct {
	client   *http.Client
	settings database.SettingsRepository
	apiBase  string
}

func NewTwitterExtractor(client *http.Client, settings database.SettingsRepository) *TwitterExtractor {
	return &TwitterExtractor{
		client:   client,
		settings: settings,
		apiBase:  "https://api.twitter.com",
	}
}

func (e *TwitterExtractor) CanHandle(domain string) bool {
	return domain == "twitter.com"
}

func (e *TwitterExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	if !e.settings.GetBool("", "twitter_enabled", false) {
		return "", nil
	}
	token := e.settings.GetSecret("twitter_api_token")
	if token == "" {
		slog.Warn("Twitter previews enabled but no API token configured")
		return "", nil
	}

	if statusID, ok := findStatusID(rawURL); ok {
		return e.previewStatus(ctx, statusID, token)
	}
	if handle, ok := findProfileHandle(rawURL); ok {
		return e.previewProfile(ctx, handle, token)
	}

	return "", nil
}

// findStatusID pulls the numeric id out of a status URL. Sub-resource paths
// like …/status/123/likes are not status links and are rejected.
func findStatusID(rawURL string) (string, bool) {
	m := twitterStatusPattern.FindStringSubmatchIndex(rawURL)
	if m == nil {
		return "", false
	}
	if trailingSegment.MatchString(rawURL[m[1]:]) {
		return "", false
	}
	return rawURL[m[2]:m[3]], true
}

// findProfileHandle matches a bare profile URL, again rejecting anything
// with a further path segment (twitter.com/foo/likes is not a profile).
func findProfileHandle(rawURL string) (string, bool) {
	m := twitterProfilePattern.FindStringSubmatchIndex(rawURL)
	if m == nil {
		return "", false
	}
	if trailingSegment.MatchString(rawURL[m[1]:]) {
		return "", false
	}
	return rawURL[m[2]:m[3]], true
}

type twitterStatusResponse struct {
	Data *struct {
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Includes *struct {
		Users []struct {
			Name     string `json:"name"`
			Username string `json:"username"`
			Verified bool   `json:"verified"`
		} `json:"users"`
	} `json:"includes"`
	Errors []json.RawMessage `json:"errors"`
}

type twitterProfileResponse struct {
	Data *struct {
		Name          string `json:"name"`
		Username      string `json:"username"`
		Description   string `json:"description"`
		Verified      bool   `json:"verified"`
		PublicMetrics *struct {
			TweetCount     int64 `json:"tweet_count"`
			FollowersCount int64 `json:"followers_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

func (e *TwitterExtractor) previewStatus(ctx context.Context, statusID, token string) (string, error) {
	url := e.apiBase + "/2/tweets/" + statusID +
		"?tweet.fields=created_at&expansions=author_id&user.fields=username,verified"

	var parsed twitterStatusResponse
	if err := e.call(ctx, url, token, &parsed); err != nil {
		return "", err
	}

	// An errors field means there is no tweet with that id.
	if len(parsed.Errors) > 0 {
		return "", nil
	}
	if parsed.Data == nil || parsed.Includes == nil || len(parsed.Includes.Users) == 0 {
		return "", fmt.Errorf("tweet response is missing expected fields")
	}

	user := parsed.Includes.Users[0]
	author := FormatAuthor(user.Name, user.Username, user.Verified)
	text := squeezeBody(parsed.Data.Text)

	when := parsed.Data.CreatedAt
	if createdAt, err := time.Parse(time.RFC3339, parsed.Data.CreatedAt); err == nil {
		when = HumanizeTime(createdAt)
	}

	return fmt.Sprintf("%s: %s (%s)", author, text, when), nil
}

func (e *TwitterExtractor) previewProfile(ctx context.Context, handle, token string) (string, error) {
	url := e.apiBase + "/2/users/by/username/" + handle +
		"?user.fields=description,public_metrics,verified"

	var parsed twitterProfileResponse
	if err := e.call(ctx, url, token, &parsed); err != nil {
		return "", err
	}

	// An errors field means there is no profile with that name.
	if len(parsed.Errors) > 0 {
		return "", nil
	}
	if parsed.Data == nil || parsed.Data.PublicMetrics == nil {
		return "", fmt.Errorf("profile response is missing expected fields")
	}

	data := parsed.Data
	author := FormatAuthor(data.Name, data.Username, data.Verified)
	description := squeezeBody(data.Description)
	tweets := HumanizeCount(data.PublicMetrics.TweetCount)
	followers := HumanizeCount(data.PublicMetrics.FollowersCount)

	return fmt.Sprintf("%s: %s (%s tweets, %s followers)", author, description, tweets, followers), nil
}

func (e *TwitterExtractor) call(ctx context.Context, url, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read API response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}

	return nil
}

// squeezeBody flattens a multi-line post body onto one line, marking the
// line breaks, and collapses excess spaces.
func squeezeBody(s string) string {
	s = newlinePattern.ReplaceAllString(s, returnSymbol)
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var spaceRunPattern = regexp.MustCompile(`  +`)
