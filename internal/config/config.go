// Package config defines the configuration contract and handles loading and validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken   = "TELEGRAM_TOKEN"
	KeyAdminChatID     = "ADMIN_CHAT_ID"
	KeyMongoURI        = "MONGO_URI"
	KeyMongoDB         = "MONGO_DB"
	KeyAppEnv          = "APP_ENV"
	KeyLogLevel        = "LOG_LEVEL"
	KeyHTTPPort        = "HTTP_PORT"
	KeyWebhookURL      = "TELEGRAM_WEBHOOK_URL"
	KeyWebhookSecret   = "TELEGRAM_WEBHOOK_SECRET"
	KeyAdminUsername   = "ADMIN_USERNAME"
	KeyAdminPassword   = "ADMIN_PASSWORD"
	KeyStoreTimeout    = "STORE_TIMEOUT"
	KeyTelegramTimeout = "TELEGRAM_TIMEOUT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv          = EnvProduction
	DefaultLogLevel        = "info"
	DefaultHTTPPort        = 8080
	DefaultStoreTimeout    = 5 * time.Second
	DefaultTelegramTimeout = 10 * time.Second

	// Recommended database names by environment.
	DefaultMongoDBProd = "coupon_bot"
	DefaultMongoDBDev  = "coupon_bot_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyAdminChatID,
		Example:     "123456789",
		Required:    true,
		Description: "Chat that receives support messages relayed from users.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
		Notes:       "Must use the mongodb:// or mongodb+srv:// scheme.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "Port for the webhook, admin API and health endpoints.",
	},
	{
		Key:         KeyWebhookURL,
		Example:     "https://bot.example.com/telegram/webhook",
		Description: "Public webhook URL registered with Telegram.",
		Notes:       "When empty the bot deletes any webhook and uses long polling.",
	},
	{
		Key:         KeyWebhookSecret,
		Example:     "s3cr3t-token",
		Description: "Secret token Telegram echoes in X-Telegram-Bot-Api-Secret-Token.",
	},
	{
		Key:         KeyAdminUsername,
		Example:     "admin",
		Description: "Admin account ensured at startup.",
		Notes:       "Both " + KeyAdminUsername + " and " + KeyAdminPassword + " must be set to bootstrap.",
	},
	{
		Key:         KeyAdminPassword,
		Example:     "change-me",
		Description: "Password for the bootstrap admin account; stored as a bcrypt hash.",
	},
	{
		Key:         KeyStoreTimeout,
		Example:     DefaultStoreTimeout.String(),
		Default:     DefaultStoreTimeout.String(),
		Description: "Upper bound for a single data-store query issued while handling an update.",
	},
	{
		Key:         KeyTelegramTimeout,
		Example:     DefaultTelegramTimeout.String(),
		Default:     DefaultTelegramTimeout.String(),
		Description: "Upper bound for a single outbound Telegram API call.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken   string
	AdminChatID     int64
	MongoURI        string
	MongoDB         string
	AppEnv          string
	LogLevel        string
	HTTPPort        int
	WebhookURL      string
	WebhookSecret   string
	AdminUsername   string
	AdminPassword   string
	StoreTimeout    time.Duration
	TelegramTimeout time.Duration
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:          firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken:   strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		MongoURI:        strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:         strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:        firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:        DefaultHTTPPort,
		WebhookURL:      strings.TrimSpace(os.Getenv(KeyWebhookURL)),
		WebhookSecret:   strings.TrimSpace(os.Getenv(KeyWebhookSecret)),
		AdminUsername:   strings.TrimSpace(os.Getenv(KeyAdminUsername)),
		AdminPassword:   os.Getenv(KeyAdminPassword),
		StoreTimeout:    DefaultStoreTimeout,
		TelegramTimeout: DefaultTelegramTimeout,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}

	adminChatRaw := strings.TrimSpace(os.Getenv(KeyAdminChatID))
	if adminChatRaw == "" {
		missing = append(missing, KeyAdminChatID)
	} else {
		chatID, parseErr := strconv.ParseInt(adminChatRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyAdminChatID, parseErr)
		}
		cfg.AdminChatID = chatID
	}

	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}

	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if err := validateMongoURI(cfg.MongoURI); err != nil {
		return Config{}, err
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	if cfg.WebhookURL != "" {
		parsed, parseErr := url.Parse(cfg.WebhookURL)
		if parseErr != nil || parsed.Scheme != "https" || parsed.Host == "" {
			return Config{}, fmt.Errorf("invalid %s: must be an absolute https URL", KeyWebhookURL)
		}
	}

	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("%s and %s must be set together", KeyAdminUsername, KeyAdminPassword)
	}

	if cfg.StoreTimeout, err = parseTimeout(KeyStoreTimeout, DefaultStoreTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TelegramTimeout, err = parseTimeout(KeyTelegramTimeout, DefaultTelegramTimeout); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// UsesWebhook reports whether updates arrive through the HTTP webhook instead
// of long polling.
func (c Config) UsesWebhook() bool {
	return c.WebhookURL != ""
}

// FormatRedacted renders the configuration for humans with secrets masked.
func FormatRedacted(cfg Config) string {
	lines := []string{
		"telegram_token: " + maskSecret(cfg.TelegramToken),
		"admin_chat_id: " + strconv.FormatInt(cfg.AdminChatID, 10),
		"mongo_uri: " + redactURI(cfg.MongoURI),
		"mongo_db: " + cfg.MongoDB,
		"app_env: " + cfg.AppEnv,
		"log_level: " + cfg.LogLevel,
		"http_port: " + strconv.Itoa(cfg.HTTPPort),
		"webhook_url: " + displayOrUnset(cfg.WebhookURL),
		"webhook_secret: " + maskSecret(cfg.WebhookSecret),
		"admin_username: " + displayOrUnset(cfg.AdminUsername),
		"admin_password: " + maskSecret(cfg.AdminPassword),
		"store_timeout: " + cfg.StoreTimeout.String(),
		"telegram_timeout: " + cfg.TelegramTimeout.String(),
	}

	return strings.Join(lines, "\n")
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func validateMongoURI(raw string) error {
	if strings.HasPrefix(raw, "mongodb://") || strings.HasPrefix(raw, "mongodb+srv://") {
		return nil
	}

	return fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
}

func parseTimeout(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return d, nil
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "...redacted"
	}

	return value[:4] + "...redacted"
}

func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.User == nil {
		return raw
	}

	parsed.User = nil
	return parsed.String()
}

func displayOrUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
