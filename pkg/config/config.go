package config

import "time"

// Config holds runtime configuration for the Stars storefront bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot          BotConfig          `mapstructure:"bot"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Support      SupportConfig      `mapstructure:"support"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Server       ServerConfig       `mapstructure:"server"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	I18n         I18nConfig         `mapstructure:"i18n"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookListen string        `mapstructure:"webhook_listen"`
	WebhookURL    string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
}

// AdminConfig identifies the single storefront operator.
type AdminConfig struct {
	ChatID int64 `mapstructure:"chat_id" validate:"required"`
}

// SupportConfig holds the public support contact.
type SupportConfig struct {
	Username string `mapstructure:"username"`
}

// PaymentConfig holds manual payment instructions shown to buyers.
type PaymentConfig struct {
	CardNumber string `mapstructure:"card_number" validate:"required"`
}

// RedisConfig defines the key-value store connection.
type RedisConfig struct {
	URL          string        `mapstructure:"url" validate:"required"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ConversationConfig selects where in-progress purchases are kept.
type ConversationConfig struct {
	Backend       string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gte=0"`
	CleanInterval time.Duration `mapstructure:"clean_interval"`
}

// DatabaseConfig enables the optional Postgres order archive when DSN is set.
type DatabaseConfig struct {
	DSN           string `mapstructure:"dsn"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// Enabled reports whether the archive database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	File   string `mapstructure:"file"`
}

// SentryConfig toggles error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the operational HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RateLimitRule is a limit over a window such as "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user throttling.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// I18nConfig configures message catalogs.
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	Dir             string `mapstructure:"dir"`
}
