package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
)

var _ SettingsRepository = (*SettingsRepositoryImpl)(nil)

type SettingsRepositoryImpl struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{db: db}
}

// Get returns the raw value for a scoped key. The second return value
// reports whether the key exists.
func (r *SettingsRepositoryImpl) Get(scope, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`
		SELECT value FROM settings WHERE scope = ? AND key = ?
	`, scope, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s/%s: %w", scope, key, err)
	}

	return value, true, nil
}

// GetBool reads a boolean setting. A channel-scoped lookup falls back to the
// global value, then to the provided default. Unreadable values count as
// missing, not as errors.
func (r *SettingsRepositoryImpl) GetBool(scope, key string, def bool) bool {
	for _, s := range scopeChain(scope) {
		value, ok, err := r.Get(s, key)
		if err != nil {
			slog.Error("Database error", "operation", "get_setting", "scope", s, "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			slog.Warn("Setting is not a boolean", "scope", s, "key", key, "value", value)
			continue
		}
		return parsed
	}
	return def
}

// GetSecret reads a global secret value. Missing secrets are empty strings.
func (r *SettingsRepositoryImpl) GetSecret(key string) string {
	value, ok, err := r.Get("", key)
	if err != nil {
		slog.Error("Database error", "operation", "get_secret", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

// Set inserts or updates a scoped setting.
func (r *SettingsRepositoryImpl) Set(scope, key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (scope, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (scope, key)
		DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, scope, key, value)

	if err != nil {
		return fmt.Errorf("failed to set setting %s/%s: %w", scope, key, err)
	}

	return nil
}

// All returns every stored setting, global scope first.
func (r *SettingsRepositoryImpl) All() ([]Setting, error) {
	rows, err := r.db.Query(`
		SELECT scope, key, value, updated_at FROM settings ORDER BY scope, key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Scope, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

func scopeChain(scope string) []string {
	if scope == "" {
		return []string{""}
	}
	return []string{scope, ""}
}
