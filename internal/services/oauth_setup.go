package services

import (
	"membership-api/internal/config"
	"membership-api/pkg/logging"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// SetupOAuth registers the Google provider and the cookie store gothic keeps
// OAuth state in. Without client credentials Google sign-in stays disabled.
func SetupOAuth(cfg *config.Config) bool {
	if cfg.GoogleClientID == "" || cfg.GoogleSecret == "" {
		logging.Infof("Google sign-in disabled, AUTH_GOOGLE_ID or AUTH_GOOGLE_SECRET not set")
		return false
	}

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleSecret,
			cfg.SiteURL+"/auth/google/callback",
			"email", "profile",
		),
	)

	store := sessions.NewCookieStore([]byte(cfg.AuthSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	return true
}
