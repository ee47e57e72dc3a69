package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Replier delivers a preview line back to the channel it was triggered
// from. The chat protocol itself lives on the other side of this interface.
type Replier interface {
	Send(ctx context.Context, channelID, text string) error
}

var _ Replier = (*WebhookReplier)(nil)

// WebhookReplier posts replies as JSON to the relay's webhook endpoint.
type WebhookReplier struct {
	client    *http.Client
	url       string
	userAgent string
}

func NewWebhookReplier(url, userAgent string) *WebhookReplier {
	return &WebhookReplier{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:       url,
		userAgent: userAgent,
	}
}

type replyPayload struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

func (r *WebhookReplier) Send(ctx context.Context, channelID, text string) error {
	payload, err := json.Marshal(replyPayload{ChannelID: channelID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reply webhook returned HTTP status %d", resp.StatusCode)
	}

	return nil
}
