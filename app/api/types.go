package api

import (
	"context"
	"time"

	"github.com/lysyi3m/link-comb/app/database"
	"github.com/lysyi3m/link-comb/app/preview"
	"github.com/lysyi3m/link-comb/app/relay"
	"github.com/lysyi3m/link-comb/app/tasks"
)

type DispatcherInterface interface {
	Run(ctx context.Context, channelID, text string) string
	Snapshot() preview.Stats
}

var _ DispatcherInterface = (*preview.Dispatcher)(nil)

type Handler struct {
	dispatcher   DispatcherInterface
	settingsRepo database.SettingsRepository
	scheduler    tasks.TaskSchedulerInterface
	replier      relay.Replier
	version      string
	startedAt    time.Time
}

type incomingMessage struct {
	ChannelID string `json:"channel_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

type settingUpdate struct {
	Scope string `json:"scope"`
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}
