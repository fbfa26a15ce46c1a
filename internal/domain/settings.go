package domain

import (
	"slices"
	"strings"
	"time"
)

// SupportMode controls what happens to free-text messages sent to the bot.
type SupportMode string

const (
	// SupportModeForward relays user messages to the admin chat.
	SupportModeForward SupportMode = "forward"
	// SupportModeLink points users at the admin's Telegram profile instead.
	SupportModeLink SupportMode = "link"
)

// Setting keys stored in the bot_settings collection.
const (
	SettingGreetingMessage = "greeting_message"
	SettingAdminUsername   = "admin_username"
	SettingSupportMode     = "support_mode"
)

// SettingKeys lists every key the admin API accepts.
var SettingKeys = []string{SettingGreetingMessage, SettingAdminUsername, SettingSupportMode}

// Setting is a single key/value row.
type Setting struct {
	Key       string    `bson:"key" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Settings is the collapsed view of all setting rows used by the bot.
type Settings struct {
	GreetingMessage string      `json:"greeting_message"`
	AdminUsername   string      `json:"admin_username"`
	SupportMode     SupportMode `json:"support_mode"`
}

// DefaultSettings is used whenever nothing is stored or the store is unreachable.
func DefaultSettings() Settings {
	return Settings{SupportMode: SupportModeForward}
}

// ParseSupportMode normalizes a stored value, falling back to forward.
func ParseSupportMode(value string) SupportMode {
	switch SupportMode(strings.ToLower(strings.TrimSpace(value))) {
	case SupportModeLink:
		return SupportModeLink
	default:
		return SupportModeForward
	}
}

// IsSettingKey reports whether key is a known setting.
func IsSettingKey(key string) bool {
	return slices.Contains(SettingKeys, key)
}

// Apply folds one row into the settings; unknown keys are ignored.
func (s *Settings) Apply(row Setting) {
	switch row.Key {
	case SettingGreetingMessage:
		s.GreetingMessage = row.Value
	case SettingAdminUsername:
		s.AdminUsername = strings.TrimPrefix(strings.TrimSpace(row.Value), "@")
	case SettingSupportMode:
		s.SupportMode = ParseSupportMode(row.Value)
	}
}
