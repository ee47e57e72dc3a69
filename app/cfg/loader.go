package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./link-comb.db" description:"Path to the SQLite settings database"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for message processing"`
	QueueSize    int    `long:"queue-size" env:"QUEUE_SIZE" default:"300" description:"Capacity of the background task queue"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the settings endpoints (optional)"`
	ReplyURL     string `long:"reply-url" env:"REPLY_URL" description:"Webhook URL replies are delivered to; when unset replies are returned synchronously"`

	// Fetch behavior
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:81.0) Gecko/20100101 Firefox/81.0" description:"User agent string for outbound HTTP requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Timeout for a single page fetch in seconds"`
	MaxBodySize  int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"1048576" description:"Maximum number of body bytes read from a fetched page"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:       raw.DBPath,
		Port:         raw.Port,
		WorkerCount:  raw.WorkerCount,
		QueueSize:    raw.QueueSize,
		APIAccessKey: raw.APIAccessKey,
		ReplyURL:     raw.ReplyURL,
		UserAgent:    raw.UserAgent,
		FetchTimeout: raw.FetchTimeout,
		MaxBodySize:  raw.MaxBodySize,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
