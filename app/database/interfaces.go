package database

// SettingsRepository is the read/write surface for scoped configuration.
// The preview pipeline only reads; the settings API also writes.
type SettingsRepository interface {
	GetBool(scope, key string, def bool) bool
	GetSecret(key string) string
	Get(scope, key string) (string, bool, error)
	Set(scope, key, value string) error
	All() ([]Setting, error)
}
