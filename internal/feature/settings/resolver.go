// Package settings resolves the bot's admin-editable settings.
package settings

import (
	"context"

	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/logging"
)

type rowSource interface {
	All(ctx context.Context) ([]domain.Setting, error)
}

// Resolver collapses bot_settings rows into a Settings value.
type Resolver struct {
	rows   rowSource
	logger *logrus.Entry
}

// NewResolver constructs a Resolver over rows.
func NewResolver(rows rowSource, logger *logrus.Entry) *Resolver {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Resolver{
		rows:   rows,
		logger: logger,
	}
}

// Resolve returns the current settings. Rows arrive ordered by updated_at so
// the latest value per key wins. Any failure yields the defaults.
func (r *Resolver) Resolve(ctx context.Context) domain.Settings {
	settings := domain.DefaultSettings()
	if r == nil || r.rows == nil || ctx == nil {
		return settings
	}

	rows, err := r.rows.All(ctx)
	if err != nil {
		r.logger.WithField("event", "settings_fallback").WithError(err).Warn("using default bot settings")
		return settings
	}

	for _, row := range rows {
		settings.Apply(row)
	}

	return settings
}
