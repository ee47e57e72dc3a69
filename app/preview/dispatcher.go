package preview

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/lysyi3m/link-comb/app/database"
)

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Messages uint64 `json:"messages"`
	Matched  uint64 `json:"urls_matched"`
	Previews uint64 `json:"previews"`
	Failures uint64 `json:"failures"`
}

// Dispatcher runs the pipeline for one incoming message: URL detection,
// extractor selection, extraction, formatting. Every failure degrades to an
// empty reply; nothing here ever surfaces an error into the channel.
type Dispatcher struct {
	settings database.SettingsRepository
	registry *Registry
	generic  *GenericExtractor

	messages atomic.Uint64
	matched  atomic.Uint64
	previews atomic.Uint64
	failures atomic.Uint64
}

func NewDispatcher(settings database.SettingsRepository, registry *Registry, generic *GenericExtractor) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		registry: registry,
		generic:  generic,
	}
}

// Run inspects one message and returns the preview line, or the empty
// string when there is nothing to say.
func (d *Dispatcher) Run(ctx context.Context, channelID, text string) string {
	d.messages.Add(1)

	if !d.settings.GetBool(channelID, "enabled", true) {
		return ""
	}

	url := FindURL(text)
	if url == "" {
		return ""
	}
	d.matched.Add(1)

	domain := DomainOf(url)

	reply, err := d.extract(ctx, domain, url)
	if err != nil {
		d.failures.Add(1)
		slog.Info("Preview failed", "channel", channelID, "url", url, "error", err)
		return ""
	}

	if reply != "" {
		d.previews.Add(1)
	}
	return reply
}

func (d *Dispatcher) extract(ctx context.Context, domain, url string) (string, error) {
	if extractor := d.registry.Resolve(domain); extractor != nil {
		return extractor.Extract(ctx, url)
	}

	if !d.generic.CanHandle(domain) {
		slog.Debug("Domain not eligible for generic preview", "domain", domain)
		return "", nil
	}
	if !d.settings.GetBool("", "generic_enabled", true) {
		return "", nil
	}

	return d.generic.Extract(ctx, url)
}

// Snapshot returns the current counter values.
func (d *Dispatcher) Snapshot() Stats {
	return Stats{
		Messages: d.messages.Load(),
		Matched:  d.matched.Load(),
		Previews: d.previews.Load(),
		Failures: d.failures.Load(),
	}
}
