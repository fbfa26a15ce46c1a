// Package logging configures logrus for the coupon bot and its HTTP surface.
package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/config"
)

const serviceName = "coupon-bot"

// Update modes reported in the base "mode" field.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

var baseLogger *logrus.Entry

// Fields is a shorthand alias for structured log fields.
type Fields = logrus.Fields

// Context identifies the update a log line belongs to. Zero values are left
// out of the entry.
type Context struct {
	Event  string
	UserID int64
	ChatID int64
	Action string
}

// Fields renders the non-zero identifiers.
func (c Context) Fields() Fields {
	fields := Fields{}

	if event := strings.TrimSpace(c.Event); event != "" {
		fields["event"] = event
	}
	if c.UserID != 0 {
		fields["user_id"] = c.UserID
	}
	if c.ChatID != 0 {
		fields["chat_id"] = c.ChatID
	}
	if action := strings.TrimSpace(c.Action); action != "" {
		fields["action"] = action
	}

	return fields
}

// Setup builds the process logger: JSON in production, text in development,
// tagged with the service, environment and update mode.
func Setup(cfg config.Config) (*logrus.Entry, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	mode := ModePolling
	if cfg.UsesWebhook() {
		mode = ModeWebhook
	}

	baseLogger = newEntry(level, cfg.AppEnv).WithField("mode", mode)
	return baseLogger, nil
}

// Logger returns the configured base logger, falling back to a production
// default before Setup runs.
func Logger() *logrus.Entry {
	if baseLogger == nil {
		baseLogger = newEntry(logrus.InfoLevel, config.DefaultAppEnv)
	}
	return baseLogger
}

// With attaches c to entry, or to the base logger when entry is nil.
func With(entry *logrus.Entry, c Context) *logrus.Entry {
	if entry == nil {
		entry = Logger()
	}

	fields := c.Fields()
	if len(fields) == 0 {
		return entry
	}
	return entry.WithFields(fields)
}

// Info logs through the base logger. Used before a scoped logger exists.
func Info(msg string, fields Fields) {
	Logger().WithFields(fields).Info(msg)
}

// Error logs through the base logger. Used before a scoped logger exists.
func Error(msg string, fields Fields) {
	Logger().WithFields(fields).Error(msg)
}

func newEntry(level logrus.Level, appEnv string) *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(formatterForEnv(appEnv))

	return logger.WithFields(Fields{
		"service": serviceName,
		"env":     appEnv,
	})
}

func formatterForEnv(appEnv string) logrus.Formatter {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "ts",
		logrus.FieldKeyMsg:   "msg",
		logrus.FieldKeyLevel: "level",
	}

	if appEnv == config.EnvDevelopment {
		return &logrus.TextFormatter{
			FullTimestamp:          true,
			TimestampFormat:        time.RFC3339Nano,
			FieldMap:               fieldMap,
			DisableLevelTruncation: true,
		}
	}

	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap:        fieldMap,
	}
}

func parseLevel(value string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", value, err)
	}

	return level, nil
}

// resetLogger clears the cached logger; used in tests.
func resetLogger() {
	baseLogger = nil
}
