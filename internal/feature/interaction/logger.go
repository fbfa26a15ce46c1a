// Package interaction records user actions for analytics.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/logging"
)

type appender interface {
	Insert(ctx context.Context, interaction domain.Interaction) (domain.Interaction, error)
}

// Logger appends one row to user_interactions per dispatched update.
type Logger struct {
	store  appender
	logger *logrus.Entry
}

// NewLogger constructs a Logger writing through store.
func NewLogger(store appender, logger *logrus.Entry) *Logger {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Logger{
		store:  store,
		logger: logger,
	}
}

// Record stores the interaction. Callers treat the returned error as
// informational; a failed write never aborts the reply.
func (l *Logger) Record(ctx context.Context, interaction domain.Interaction) error {
	if l == nil || l.store == nil {
		return errors.New("interaction logger is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	interaction.Action = strings.TrimSpace(interaction.Action)
	if interaction.Action == "" {
		return errors.New("action is required")
	}

	stored, err := l.store.Insert(ctx, interaction)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	l.logger.WithFields(logging.Fields{
		"event":   "interaction_recorded",
		"user_id": stored.TelegramID,
		"action":  stored.Action,
	}).Debug("recorded user interaction")

	return nil
}
