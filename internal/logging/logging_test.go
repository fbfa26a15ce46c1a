package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"edu_coupon_bot/internal/config"
)

func TestSetupProductionWebhook(t *testing.T) {
	resetLogger()

	entry, err := Setup(config.Config{
		AppEnv:     config.EnvProduction,
		LogLevel:   "warn",
		WebhookURL: "https://bot.example.com/telegram/webhook",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jsonFormatter, ok := entry.Logger.Formatter.(*logrus.JSONFormatter)
	if !ok {
		t.Fatalf("expected JSON formatter, got %T", entry.Logger.Formatter)
	}
	if jsonFormatter.FieldMap[logrus.FieldKeyTime] != "ts" {
		t.Fatalf("expected ts field for timestamps, got %q", jsonFormatter.FieldMap[logrus.FieldKeyTime])
	}
	if entry.Logger.Level != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", entry.Logger.Level)
	}

	want := Fields{"service": serviceName, "env": config.EnvProduction, "mode": ModeWebhook}
	for k, v := range want {
		if entry.Data[k] != v {
			t.Fatalf("expected %s=%v, got %v", k, v, entry.Data[k])
		}
	}

	if Logger() != entry {
		t.Fatalf("expected Logger to return the configured entry")
	}
}

func TestSetupDevelopmentPolling(t *testing.T) {
	resetLogger()

	entry, err := Setup(config.Config{AppEnv: config.EnvDevelopment, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := entry.Logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected Text formatter, got %T", entry.Logger.Formatter)
	}
	if entry.Data["mode"] != ModePolling {
		t.Fatalf("expected polling mode, got %v", entry.Data["mode"])
	}
}

func TestSetupRejectsInvalidLogLevel(t *testing.T) {
	resetLogger()

	if _, err := Setup(config.Config{AppEnv: config.EnvDevelopment, LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for invalid log level")
	}

	if baseLogger != nil {
		t.Fatalf("base logger should remain unset after failure")
	}
}

func TestLoggerFallsBackBeforeSetup(t *testing.T) {
	resetLogger()

	entry := Logger()
	if entry.Data["env"] != config.DefaultAppEnv || entry.Logger.Level != logrus.InfoLevel {
		t.Fatalf("unexpected fallback logger %v level=%s", entry.Data, entry.Logger.Level)
	}
	if _, ok := entry.Data["mode"]; ok {
		t.Fatalf("fallback logger should not claim an update mode")
	}
}

func TestWithAttachesUpdateContext(t *testing.T) {
	logger, hook := test.NewNullLogger()
	base := logger.WithField("service", serviceName)

	With(base, Context{UserID: 42, ChatID: -1001, Event: "dispatch_error", Action: "callback:menu:pw"}).Error("boom")

	last := hook.LastEntry()
	want := Fields{
		"service": serviceName,
		"event":   "dispatch_error",
		"user_id": int64(42),
		"chat_id": int64(-1001),
		"action":  "callback:menu:pw",
	}
	for k, v := range want {
		if last.Data[k] != v {
			t.Fatalf("expected %s=%v, got %v", k, v, last.Data)
		}
	}
}

func TestContextOmitsZeroValues(t *testing.T) {
	fields := Context{Event: "  ", Action: ""}.Fields()
	if len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}

	logger, _ := test.NewNullLogger()
	base := logrus.NewEntry(logger)
	if With(base, Context{}) != base {
		t.Fatalf("expected empty context to return the entry unchanged")
	}
}

func TestPackageHelpersUseBaseLogger(t *testing.T) {
	resetLogger()

	logger, hook := test.NewNullLogger()
	baseLogger = logrus.NewEntry(logger)

	Info("hello world", Fields{"event": "startup"})
	Error("boom", Fields{"event": "startup_error"})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["event"] != "startup" {
		t.Fatalf("unexpected info entry level=%s data=%v", entries[0].Level, entries[0].Data)
	}
	if entries[1].Level != logrus.ErrorLevel || entries[1].Data["event"] != "startup_error" {
		t.Fatalf("unexpected error entry level=%s data=%v", entries[1].Level, entries[1].Data)
	}
}
