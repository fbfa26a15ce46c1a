// Package webhook receives Telegram updates over HTTP and hands them to the
// menu dispatcher.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/httpx"
	"edu_coupon_bot/internal/logging"
	"edu_coupon_bot/internal/telegram"
)

// SecretHeader carries the token Telegram echoes back from setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxBodyBytes = 1 << 20

// UpdateHandler processes one decoded update.
type UpdateHandler interface {
	Handle(ctx context.Context, update *models.Update)
}

// Option customizes the webhook handler.
type Option func(*Handler)

// WithSecret requires every POST to carry secret in SecretHeader.
func WithSecret(secret string) Option {
	return func(h *Handler) {
		h.secret = secret
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *logrus.Entry) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handler answers Telegram webhook calls. Every authenticated POST gets a 200
// so Telegram never redelivers an update.
type Handler struct {
	updates UpdateHandler
	secret  string
	logger  *logrus.Entry
}

// NewHandler builds the webhook handler around the update consumer.
func NewHandler(updates UpdateHandler, opts ...Option) (*Handler, error) {
	if updates == nil {
		return nil, errors.New("update handler is required")
	}

	h := &Handler{
		updates: updates,
		logger:  logging.Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h, nil
}

// Routes exposes GET (status) and POST (update intake) on the mount point.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.status)
	r.Post("/", h.receive)
	return r
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "Webhook endpoint active"}, h.logger)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.WithFields(logging.Fields{
				"event":     "webhook_forbidden",
				"remote_ip": r.RemoteAddr,
			}).Warn("webhook call with invalid secret token")
			httpx.WriteError(w, http.StatusForbidden, "Forbidden", h.logger)
			return
		}
	}

	var update models.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		h.logger.WithField("event", "webhook_decode_error").WithError(err).Warn("failed to decode telegram update")
		h.ok(w)
		return
	}

	telegram.LogUpdate(h.logger, &update)
	h.updates.Handle(r.Context(), &update)

	h.ok(w)
}

func (h *Handler) ok(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true}, h.logger)
}
