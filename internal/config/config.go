package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string `env:"PORT" envDefault:"8080"`
	Mode        string `env:"GIN_MODE" envDefault:"debug"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"Studio Membership"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Database configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis configuration
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Stripe configuration
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `env:"STRIPE_PRICE_ID"`

	// Public site used for checkout and portal return URLs
	SiteURL string `env:"SITE_URL"`

	// Brevo email configuration
	BrevoAPIKey     string `env:"BREVO_API_KEY"`
	BrevoFromEmail  string `env:"BREVO_FROM_EMAIL"`
	BrevoFromName   string `env:"BREVO_FROM_NAME" envDefault:"Studio Membership"`
	AccessLinkURL   string `env:"ACCESS_LINK_URL"`
	SendAccessEmail bool   `env:"SEND_ACCESS_EMAIL" envDefault:"false"`

	// Sign-in configuration
	AuthSecret       string        `env:"AUTH_SECRET"`
	GoogleClientID   string        `env:"AUTH_GOOGLE_ID"`
	GoogleSecret     string        `env:"AUTH_GOOGLE_SECRET"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	LoginLinkTTL     time.Duration `env:"LOGIN_LINK_TTL" envDefault:"15m"`
	LoginRateLimit   time.Duration `env:"LOGIN_RATE_LIMIT" envDefault:"1m"`
	AdminAPIKey      string        `env:"ADMIN_API_KEY"`
	SecureCookies    bool          `env:"SECURE_COOKIES" envDefault:"true"`
	SessionCookieKey string        `env:"SESSION_COOKIE_NAME" envDefault:"member_session"`
}

var AppConfig *Config

// ConfigError reports a required setting that is not present.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Missing %s", e.Key)
}

func InitConfig() error {
	// A missing .env file is fine, the process environment still applies
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load parses the process environment into a Config without touching AppConfig.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.StripePriceID = strings.TrimSpace(cfg.StripePriceID)
	return &cfg, nil
}

// RequiredKeys lists the settings whose presence is reported by the admin API.
var RequiredKeys = []string{
	"DATABASE_URL",
	"REDIS_URL",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"STRIPE_PRICE_ID",
	"SITE_URL",
	"BREVO_API_KEY",
	"BREVO_FROM_EMAIL",
	"ACCESS_LINK_URL",
	"AUTH_SECRET",
	"AUTH_GOOGLE_ID",
	"AUTH_GOOGLE_SECRET",
	"ADMIN_API_KEY",
}

func (c *Config) value(key string) string {
	switch key {
	case "DATABASE_URL":
		return c.DatabaseURL
	case "REDIS_URL":
		return c.RedisURL
	case "STRIPE_SECRET_KEY":
		return c.StripeSecretKey
	case "STRIPE_WEBHOOK_SECRET":
		return c.StripeWebhookSecret
	case "STRIPE_PRICE_ID":
		return c.StripePriceID
	case "SITE_URL":
		return c.SiteURL
	case "BREVO_API_KEY":
		return c.BrevoAPIKey
	case "BREVO_FROM_EMAIL":
		return c.BrevoFromEmail
	case "ACCESS_LINK_URL":
		return c.AccessLinkURL
	case "AUTH_SECRET":
		return c.AuthSecret
	case "AUTH_GOOGLE_ID":
		return c.GoogleClientID
	case "AUTH_GOOGLE_SECRET":
		return c.GoogleSecret
	case "ADMIN_API_KEY":
		return c.AdminAPIKey
	}
	return ""
}

// Require returns a *ConfigError for the first key that has no value.
func (c *Config) Require(keys ...string) error {
	for _, key := range keys {
		if strings.TrimSpace(c.value(key)) == "" {
			return &ConfigError{Key: key}
		}
	}
	return nil
}

// Presence reports which required settings are set, never their values.
func (c *Config) Presence() map[string]bool {
	out := make(map[string]bool, len(RequiredKeys))
	for _, key := range RequiredKeys {
		out[key] = strings.TrimSpace(c.value(key)) != ""
	}
	return out
}
