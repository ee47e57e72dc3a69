package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/link-comb/app/database"
	"github.com/lysyi3m/link-comb/app/relay"
	"github.com/lysyi3m/link-comb/app/tasks"
)

func NewHandler(dispatcher DispatcherInterface, settingsRepo database.SettingsRepository,
	scheduler tasks.TaskSchedulerInterface, replier relay.Replier, version string) *Handler {
	return &Handler{
		dispatcher:   dispatcher,
		settingsRepo: settingsRepo,
		scheduler:    scheduler,
		replier:      replier,
		version:      version,
		startedAt:    time.Now(),
	}
}

// PostMessage accepts one incoming channel message. With a reply webhook
// configured the message is queued and the preview delivered out-of-band;
// otherwise the preview is computed and returned in the response.
func (h *Handler) PostMessage(c *gin.Context) {
	var msg incomingMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id and text are required"})
		return
	}

	if h.replier != nil {
		task := tasks.NewPreviewMessageTask(msg.ChannelID, msg.Text, h.dispatcher, h.replier)
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Failed to enqueue message", "channel", msg.ChannelID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue is full"})
			return
		}
		c.Status(http.StatusAccepted)
		return
	}

	reply := h.dispatcher.Run(c.Request.Context(), msg.ChannelID, msg.Text)
	if reply == "" {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": msg.ChannelID,
		"reply":      reply,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"version":      h.version,
		"uptime":       time.Since(h.startedAt).String(),
		"queue_length": h.scheduler.QueueLength(),
		"timestamp":    time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.Snapshot())
}

func (h *Handler) APIListSettings(c *gin.Context) {
	settings, err := h.settingsRepo.All()
	if err != nil {
		slog.Error("Database error", "operation", "list_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(settings))
	for _, s := range settings {
		value := s.Value
		if isSecretKey(s.Key) {
			value = "<redacted>"
		}
		list = append(list, map[string]interface{}{
			"scope":      s.Scope,
			"key":        s.Key,
			"value":      value,
			"updated_at": s.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"settings": list,
		"total":    len(list),
	})
}

func (h *Handler) APISetSetting(c *gin.Context) {
	var update settingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
		return
	}

	if err := h.settingsRepo.Set(update.Scope, update.Key, update.Value); err != nil {
		slog.Error("Database error", "operation", "set_setting", "scope", update.Scope, "key", update.Key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Setting updated", "scope", update.Scope, "key", update.Key)
	c.Status(http.StatusNoContent)
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "_api_token")
}
