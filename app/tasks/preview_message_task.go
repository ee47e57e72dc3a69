package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/link-comb/app/relay"
)

// PreviewMessageTask runs the preview pipeline for one incoming message and
// delivers the result through the reply webhook. Preview failures are
// terminal and silent; only delivery failures are retried.
type PreviewMessageTask struct {
	Task
	Text       string
	dispatcher DispatcherInterface
	replier    relay.Replier

	reply string
}

func NewPreviewMessageTask(channelID, text string, dispatcher DispatcherInterface, replier relay.Replier) *PreviewMessageTask {
	return &PreviewMessageTask{
		Task:       NewTask(TaskTypePreviewMessage, channelID),
		Text:       text,
		dispatcher: dispatcher,
		replier:    replier,
	}
}

func (t *PreviewMessageTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// On a retry the preview is already computed; only delivery is redone.
	if t.reply == "" {
		t.reply = t.dispatcher.Run(ctx, t.ChannelID, t.Text)
	}

	if t.reply == "" {
		slog.Debug("No preview for message", "channel", t.ChannelID)
		return nil
	}

	if err := t.replier.Send(ctx, t.ChannelID, t.reply); err != nil {
		return fmt.Errorf("failed to deliver reply: %w", err)
	}

	slog.Info("Task completed",
		"type", "PreviewMessage",
		"channel", t.ChannelID,
		"duration", t.GetDuration())

	return nil
}
