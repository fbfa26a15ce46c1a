// Package telegram adapts the Bot API client to the dispatcher's delivery
// contract and owns update intake for long polling and webhook registration.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/config"
	"edu_coupon_bot/internal/keyboard"
	"edu_coupon_bot/internal/logging"
)

// botAPI is the subset of *bot.Bot the client calls.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SetMessageReaction(ctx context.Context, params *bot.SetMessageReactionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SetWebhook(ctx context.Context, params *bot.SetWebhookParams) (bool, error)
	DeleteWebhook(ctx context.Context, params *bot.DeleteWebhookParams) (bool, error)
}

// UpdateHandler consumes one inbound update.
type UpdateHandler func(ctx context.Context, update *models.Update)

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botAPI, error) {
		return bot.New(token, options...)
	}
)

// Option customizes the client.
type Option func(*clientOptions)

type clientOptions struct {
	handler UpdateHandler
}

// WithUpdateHandler routes polled updates to handler.
func WithUpdateHandler(handler UpdateHandler) Option {
	return func(o *clientOptions) {
		o.handler = handler
	}
}

// Client wraps the Telegram bot instance and logging dependencies.
type Client struct {
	bot    botAPI
	logger *logrus.Entry
}

// NewClient initializes the Telegram bot. Updates only flow once Start is
// called or a webhook is registered.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	var o clientOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(defaultHandler(logger, o.handler)),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}

	return &Client{
		bot:    tgBot,
		logger: logger,
	}, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

// SendMessage delivers text to a chat, with an inline keyboard when kb is set.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *keyboard.Keyboard) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if chatID == 0 {
		return errors.New("chat id is required")
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if kb != nil {
		if err := kb.Validate(); err != nil {
			return fmt.Errorf("invalid keyboard: %w", err)
		}
		params.ReplyMarkup = kb.Markup()
	}

	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}

	return nil
}

// React sets an emoji reaction on a message.
func (c *Client) React(ctx context.Context, chatID int64, messageID int, emoji string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	_, err := c.bot.SetMessageReaction(ctx, &bot.SetMessageReactionParams{
		ChatID:    chatID,
		MessageID: messageID,
		Reaction: []models.ReactionType{{
			Type: models.ReactionTypeTypeEmoji,
			ReactionTypeEmoji: &models.ReactionTypeEmoji{
				Type:  models.ReactionTypeTypeEmoji,
				Emoji: emoji,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("react to message %d: %w", messageID, err)
	}

	return nil
}

// AnswerCallback dismisses the loading indicator on a pressed button.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if callbackID == "" {
		return nil
	}

	if _, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}

	return nil
}

// RegisterWebhook points Telegram at url. A non-empty secret is echoed back by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) RegisterWebhook(ctx context.Context, url, secret string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook url is required")
	}

	if _, err := c.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: defaultAllowedUpdates,
	}); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	c.logger.WithFields(logging.Fields{
		"event":      "telegram_webhook_registered",
		"url":        url,
		"has_secret": secret != "",
	}).Info("telegram webhook registered")

	return nil
}

// DeleteWebhook clears any registered webhook so long polling can receive
// updates.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if _, err := c.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	c.logger.WithField("event", "telegram_webhook_deleted").Info("telegram webhook cleared")

	return nil
}

type updateMeta struct {
	userID     int64
	chatID     int64
	text       string
	updateType string
}

func defaultHandler(logger *logrus.Entry, next UpdateHandler) bot.HandlerFunc {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		if update == nil {
			return
		}

		LogUpdate(logger, update)

		if next != nil {
			next(ctx, update)
		}
	}
}

// LogUpdate writes a debug line describing an inbound update.
func LogUpdate(logger *logrus.Entry, update *models.Update) {
	if logger == nil || update == nil {
		return
	}

	meta := extractUpdateMeta(update)

	fields := logging.Fields{
		"event":       "telegram_update",
		"update_id":   update.ID,
		"update_type": meta.updateType,
	}

	if meta.text != "" {
		fields["text"] = meta.text
	}
	if meta.userID != 0 {
		fields["user_id"] = meta.userID
	}
	if meta.chatID != 0 {
		fields["chat_id"] = meta.chatID
	}

	logger.WithFields(fields).Debug("telegram update received")
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     update.Message.Chat.ID,
			text:       strings.TrimSpace(update.Message.Text),
			updateType: "message",
		}
	case update.EditedMessage != nil:
		return updateMeta{
			userID:     userID(update.EditedMessage.From),
			chatID:     update.EditedMessage.Chat.ID,
			text:       strings.TrimSpace(update.EditedMessage.Text),
			updateType: "edited_message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     update.CallbackQuery.From.ID,
			chatID:     messageChatID(update.CallbackQuery.Message),
			text:       strings.TrimSpace(update.CallbackQuery.Data),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func messageChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}
		return msg.Message.Chat.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}
		return msg.InaccessibleMessage.Chat.ID
	default:
		return 0
	}
}
