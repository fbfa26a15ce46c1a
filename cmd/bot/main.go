package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"edu_coupon_bot/internal/admin"
	"edu_coupon_bot/internal/config"
	"edu_coupon_bot/internal/domain"
	"edu_coupon_bot/internal/feature/adminuser"
	"edu_coupon_bot/internal/feature/interaction"
	"edu_coupon_bot/internal/feature/settings"
	"edu_coupon_bot/internal/health"
	"edu_coupon_bot/internal/logging"
	"edu_coupon_bot/internal/menu"
	"edu_coupon_bot/internal/server"
	"edu_coupon_bot/internal/store"
	"edu_coupon_bot/internal/telegram"
	"edu_coupon_bot/internal/webhook"
)

const (
	mongoConnectTimeout     = 10 * time.Second
	mongoIndexTimeout       = 10 * time.Second
	mongoDisconnectTimeout  = 5 * time.Second
	adminBootstrapTimeout   = 5 * time.Second
	httpShutdownTimeout     = 10 * time.Second
	telegramShutdownTimeout = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
		"webhook":  cfg.UsesWebhook(),
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		fatal(logger, "mongo connection error", err)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	err = mongoManager.EnsureIndexes(indexCtx)
	cancelIndexes()
	if err != nil {
		fatal(logger, "mongo index setup error", err)
	}

	logger.WithField("event", "mongo_indexes").Info("ensured mongo indexes")

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		registrar := adminuser.NewRegistrar(mongoManager.AdminUsers(), logger)
		adminCtx, cancelAdmin := context.WithTimeout(context.Background(), adminBootstrapTimeout)
		err := registrar.EnsureAdmin(adminCtx, cfg.AdminUsername, cfg.AdminPassword)
		cancelAdmin()
		if err != nil {
			fatal(logger, "admin bootstrap error", err)
		}
	}

	categories := domain.NewCategoryRepository(mongoManager.Categories())
	coupons := domain.NewCouponRepository(mongoManager.Coupons())
	referrals := domain.NewReferralRepository(mongoManager.Referrals())
	settingsRepo := domain.NewSettingsRepository(mongoManager.BotSettings())
	interactions := domain.NewInteractionRepository(mongoManager.Interactions())
	accounts := domain.NewAdminRepository(mongoManager.AdminUsers(), mongoManager.AdminSessions())
	stats := store.NewStatsProvider(mongoManager.Coupons(), mongoManager.Interactions())

	// The polling handler is bound before the dispatcher exists; Handle is
	// nil-receiver safe.
	var dispatcher *menu.Dispatcher
	tgClient, err := telegram.NewClient(cfg, logger,
		telegram.WithUpdateHandler(func(ctx context.Context, update *models.Update) {
			dispatcher.Handle(ctx, update)
		}),
	)
	if err != nil {
		fatal(logger, "telegram client setup error", err)
	}

	dispatcher, err = menu.NewDispatcher(menu.Dependencies{
		Sender:     tgClient,
		Coupons:    coupons,
		Referrals:  referrals,
		Categories: categories,
		Settings:   settings.NewResolver(settingsRepo, logger),
		Recorder:   interaction.NewLogger(interactions, logger),
	},
		menu.WithAdminChatID(cfg.AdminChatID),
		menu.WithStoreTimeout(cfg.StoreTimeout),
		menu.WithSendTimeout(cfg.TelegramTimeout),
		menu.WithLogger(logger),
	)
	if err != nil {
		fatal(logger, "dispatcher setup error", err)
	}

	webhookHandler, err := webhook.NewHandler(dispatcher,
		webhook.WithSecret(cfg.WebhookSecret),
		webhook.WithLogger(logger),
	)
	if err != nil {
		fatal(logger, "webhook setup error", err)
	}

	adminAPI, err := admin.NewAPI(admin.Dependencies{
		Categories:   categories,
		Coupons:      coupons,
		Referrals:    referrals,
		Settings:     settingsRepo,
		Interactions: interactions,
		Stats:        stats,
		Accounts:     accounts,
	},
		admin.WithLogger(logger),
		admin.WithStoreTimeout(cfg.StoreTimeout),
		admin.WithSecureCookies(!cfg.IsDevelopment()),
	)
	if err != nil {
		fatal(logger, "admin api setup error", err)
	}

	httpServer := server.New(cfg.HTTPPort, server.Routes{
		Health:  health.NewHandler(mongoManager, logger),
		Webhook: webhookHandler.Routes(),
		Admin:   adminAPI.Routes(),
	}, logger)

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- httpServer.ListenAndServe()
	}()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	modeCtx, cancelMode := context.WithTimeout(signalCtx, cfg.TelegramTimeout)
	if cfg.UsesWebhook() {
		err = tgClient.RegisterWebhook(modeCtx, cfg.WebhookURL, cfg.WebhookSecret)
		close(tgDone)
	} else {
		err = tgClient.DeleteWebhook(modeCtx)
		if err == nil {
			go func() {
				tgClient.Start(telegramCtx)
				close(tgDone)
			}()
		}
	}
	cancelMode()
	if err != nil {
		fatal(logger, "telegram update mode setup error", err)
	}

	var pollingDone <-chan struct{}
	if !cfg.UsesWebhook() {
		pollingDone = tgDone
	}

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, shutting down")
	case err := <-httpErr:
		logger.WithField("event", "http_stopped_early").WithError(err).Error("http server stopped before shutdown signal")
	case <-pollingDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := httpServer.Shutdown(httpCtx); err != nil {
		logger.WithField("event", "http_shutdown_error").WithError(err).Error("http server shutdown error")
	}
	cancelHTTP()

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithField("event", "mongo_disconnect_error").WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func fatal(logger *logrus.Entry, msg string, err error) {
	logger.WithField("event", "startup_error").WithError(err).Error(msg)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
