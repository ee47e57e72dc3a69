package database

import (
	"time"
)

// Setting is a single scoped configuration value. Scope is a channel
// identifier, or the empty string for global settings.
type Setting struct {
	Scope     string
	Key       string
	Value     string
	UpdatedAt time.Time
}
