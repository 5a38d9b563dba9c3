package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SITE_URL", "https://studio.example/ ")
	t.Setenv("STRIPE_PRICE_ID", " price_123 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://studio.example", cfg.SiteURL)
	assert.Equal(t, "price_123", cfg.StripePriceID)
	assert.Equal(t, 15*time.Minute, cfg.LoginLinkTTL)
	assert.False(t, cfg.SendAccessEmail)
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("SEND_ACCESS_EMAIL", "true")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SendAccessEmail)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("LOGIN_LINK_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	cfg := &Config{SiteURL: "https://studio.example"}

	err := cfg.Require("SITE_URL", "STRIPE_PRICE_ID")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "STRIPE_PRICE_ID", cfgErr.Key)
	assert.Equal(t, "Missing STRIPE_PRICE_ID", err.Error())

	cfg.StripePriceID = "price_123"
	assert.NoError(t, cfg.Require("SITE_URL", "STRIPE_PRICE_ID"))
}

func TestPresence(t *testing.T) {
	cfg := &Config{StripeSecretKey: "sk_test", AdminAPIKey: " "}

	presence := cfg.Presence()
	assert.True(t, presence["STRIPE_SECRET_KEY"])
	assert.False(t, presence["ADMIN_API_KEY"])
	assert.False(t, presence["SITE_URL"])
	assert.Len(t, presence, len(RequiredKeys))
}
