// Package menu routes Telegram updates through the coupon bot's menu tree and
// renders the reply for each step. It holds no per-user state between updates.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/keyboard"
	"edu_coupon_bot/internal/logging"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultSendTimeout  = 10 * time.Second

	ackReaction = "👍"
)

// Sender delivers outbound messages. A nil keyboard sends plain text.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb *keyboard.Keyboard) error
	React(ctx context.Context, chatID int64, messageID int, emoji string) error
}

// callbackAnswerer is implemented by senders that can dismiss the client-side
// loading indicator of a callback button.
type callbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// CouponSource reads active coupons.
type CouponSource interface {
	LatestActive(ctx context.Context, categoryID, descriptionContains string) (domain.Coupon, error)
	ActiveByCategory(ctx context.Context, categoryID string) ([]domain.Coupon, error)
}

// ReferralSource reads active referral offers.
type ReferralSource interface {
	Active(ctx context.Context) ([]domain.Referral, error)
}

// CategorySource reads the dynamic category tree.
type CategorySource interface {
	ActiveChildren(ctx context.Context, parentID string) ([]domain.Category, error)
	Get(ctx context.Context, id string) (domain.Category, error)
}

// SettingsSource resolves the current bot settings, never failing.
type SettingsSource interface {
	Resolve(ctx context.Context) domain.Settings
}

// Recorder appends to the interaction log.
type Recorder interface {
	Record(ctx context.Context, interaction domain.Interaction) error
}

// Dependencies are the collaborators every Dispatcher needs.
type Dependencies struct {
	Sender     Sender
	Coupons    CouponSource
	Referrals  ReferralSource
	Categories CategorySource
	Settings   SettingsSource
	Recorder   Recorder
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithAdminChatID sets the chat that receives forwarded support messages.
func WithAdminChatID(chatID int64) Option {
	return func(d *Dispatcher) {
		d.adminChatID = chatID
	}
}

// WithStoreTimeout bounds every store query and interaction write.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.storeTimeout = timeout
		}
	}
}

// WithSendTimeout bounds every outbound Telegram call.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithLogger overrides the dispatcher logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher turns one update into at most one reply and one interaction row.
type Dispatcher struct {
	sender     Sender
	coupons    CouponSource
	referrals  ReferralSource
	categories CategorySource
	settings   SettingsSource
	recorder   Recorder

	adminChatID  int64
	storeTimeout time.Duration
	sendTimeout  time.Duration
	logger       *logrus.Entry
}

// NewDispatcher validates deps and applies opts.
func NewDispatcher(deps Dependencies, opts ...Option) (*Dispatcher, error) {
	switch {
	case deps.Sender == nil:
		return nil, errors.New("sender is required")
	case deps.Coupons == nil:
		return nil, errors.New("coupon source is required")
	case deps.Referrals == nil:
		return nil, errors.New("referral source is required")
	case deps.Categories == nil:
		return nil, errors.New("category source is required")
	case deps.Settings == nil:
		return nil, errors.New("settings source is required")
	case deps.Recorder == nil:
		return nil, errors.New("interaction recorder is required")
	}

	d := &Dispatcher{
		sender:       deps.Sender,
		coupons:      deps.Coupons,
		referrals:    deps.Referrals,
		categories:   deps.Categories,
		settings:     deps.Settings,
		recorder:     deps.Recorder,
		storeTimeout: defaultStoreTimeout,
		sendTimeout:  defaultSendTimeout,
		logger:       logging.Logger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d, nil
}

// Handle processes one update. Failures are logged and turned into an apology
// for the user; nothing is returned to the caller.
func (d *Dispatcher) Handle(ctx context.Context, update *models.Update) {
	if d == nil || update == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.WithFields(logging.Fields{
				"event": "dispatch_panic",
				"panic": fmt.Sprint(r),
			}).Error("recovered from dispatcher panic")
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	default:
		d.ignore(update.ID, "no callback query or message")
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, query *models.CallbackQuery) {
	chatID := callbackChatID(query.Message)
	data := strings.TrimSpace(query.Data)
	if chatID == 0 || data == "" {
		d.ignore(0, "callback without chat or data")
		return
	}

	from := query.From
	d.record(ctx, &from, "callback:"+data)
	defer d.answerCallback(ctx, query.ID)

	route, err := ParseRoute(data)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "callback_unknown",
			"chat_id": chatID,
			"data":    data,
		}).WithError(err).Warn("unrecognized callback data")
		d.deliver(ctx, chatID, mainMenu())
		return
	}

	out, err := d.render(ctx, route)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "dispatch_error",
			"chat_id": chatID,
			"route":   route.String(),
		}).WithError(err).Error("failed to render callback")
		out = apology()
	}

	d.deliver(ctx, chatID, out)
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	if chatID == 0 {
		d.ignore(0, "message without chat")
		return
	}

	if isStartCommand(msg.Text) {
		d.handleStart(ctx, msg)
		return
	}

	d.record(ctx, msg.From, "message:"+truncateRunes(msg.Text, actionLabelLimit))

	if strings.TrimSpace(msg.Text) == "" {
		d.deliver(ctx, chatID, mainMenu())
		return
	}

	settings := d.resolveSettings(ctx)
	if settings.SupportMode == domain.SupportModeLink {
		d.deliver(ctx, chatID, reply{text: textSupportLink, keyboard: keyboard.Support(settings.AdminUsername)})
		return
	}

	if err := d.relay(ctx, msg.From, msg.Text); err != nil {
		logging.With(d.logger, logging.Context{Event: "support_relay_error", ChatID: chatID}).WithError(err).Error("failed to forward message to admin")
		d.deliver(ctx, chatID, apology())
		return
	}

	d.deliver(ctx, chatID, reply{text: textSentToAdmin, keyboard: keyboard.Main()})
}

func (d *Dispatcher) handleStart(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID

	d.record(ctx, msg.From, "start")

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	if err := d.sender.React(sendCtx, chatID, msg.ID, ackReaction); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":      "reaction_error",
			"chat_id":    chatID,
			"message_id": msg.ID,
		}).WithError(err).Warn("failed to react to start command")
	}
	cancel()

	settings := d.resolveSettings(ctx)
	d.deliver(ctx, chatID, reply{
		text:     greeting(settings, firstName(msg.From)),
		keyboard: keyboard.Main(),
	})
}

func (d *Dispatcher) relay(ctx context.Context, from *models.User, text string) error {
	if d.adminChatID == 0 {
		return errors.New("admin chat id is not configured")
	}

	username := ""
	if from != nil {
		username = from.Username
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	return d.sender.SendMessage(sendCtx, d.adminChatID, relayText(username, text), nil)
}

// deliver sends out and falls back to the apology when the send fails. A
// failed apology is logged and dropped.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, out reply) {
	err := d.send(ctx, chatID, out)
	if err == nil {
		return
	}

	logging.With(d.logger, logging.Context{Event: "send_error", ChatID: chatID}).WithError(err).Error("failed to send reply")

	if out.text == textApology {
		return
	}

	if err := d.send(ctx, chatID, apology()); err != nil {
		logging.With(d.logger, logging.Context{Event: "fallback_send_error", ChatID: chatID}).WithError(err).Error("failed to send apology")
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, out reply) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	kb := out.keyboard
	return d.sender.SendMessage(sendCtx, chatID, out.text, &kb)
}

func (d *Dispatcher) answerCallback(ctx context.Context, callbackID string) {
	answerer, ok := d.sender.(callbackAnswerer)
	if !ok || callbackID == "" {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := answerer.AnswerCallback(sendCtx, callbackID); err != nil {
		d.logger.WithField("event", "callback_answer_error").WithError(err).Debug("failed to answer callback query")
	}
}

func (d *Dispatcher) record(ctx context.Context, from *models.User, action string) {
	interaction := domain.Interaction{Action: action}
	if from != nil {
		interaction.TelegramID = from.ID
		interaction.Username = from.Username
		interaction.FirstName = from.FirstName
		interaction.LastName = from.LastName
	}

	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	if err := d.recorder.Record(storeCtx, interaction); err != nil {
		logging.With(d.logger, logging.Context{
			Event:  "interaction_log_error",
			UserID: interaction.TelegramID,
			Action: action,
		}).WithError(err).Warn("failed to record interaction")
	}
}

func (d *Dispatcher) resolveSettings(ctx context.Context) domain.Settings {
	storeCtx, cancel := context.WithTimeout(ctx, d.storeTimeout)
	defer cancel()

	return d.settings.Resolve(storeCtx)
}

func (d *Dispatcher) ignore(updateID int64, reason string) {
	d.logger.WithFields(logging.Fields{
		"event":     "update_ignored",
		"update_id": updateID,
		"reason":    reason,
	}).Debug("ignored malformed update")
}

func callbackChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message != nil {
			return msg.Message.Chat.ID
		}
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage != nil {
			return msg.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

func isStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}

	command := fields[0]
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}

	return command == "/start"
}

func firstName(user *models.User) string {
	if user == nil || strings.TrimSpace(user.FirstName) == "" {
		return fallbackFirstName
	}
	return strings.TrimSpace(user.FirstName)
}
