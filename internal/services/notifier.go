package services

import (
	"context"
	"membership-api/internal/config"
	"membership-api/pkg/logging"
)

// NotificationDispatcher sends the post-purchase access email.
type NotificationDispatcher struct {
	mailer     Mailer
	enabled    bool
	accessLink string
}

// NewNotificationDispatcher creates a dispatcher; a disabled one never sends.
func NewNotificationDispatcher(mailer Mailer, enabled bool, accessLink string) *NotificationDispatcher {
	return &NotificationDispatcher{
		mailer:     mailer,
		enabled:    enabled,
		accessLink: accessLink,
	}
}

// DispatchAccessEmail sends one access email and reports whether it was sent.
// Nothing is retried here; the caller decides what to do with the error.
func (d *NotificationDispatcher) DispatchAccessEmail(ctx context.Context, email string) (bool, error) {
	if !d.enabled || d.mailer == nil {
		logging.Debugf("Access email disabled, skipping %s", email)
		return false, nil
	}
	if d.accessLink == "" {
		return false, &config.ConfigError{Key: "ACCESS_LINK_URL"}
	}

	if err := d.mailer.SendAccessEmail(ctx, email, d.accessLink); err != nil {
		return false, err
	}

	logging.Infof("Access email sent to %s", email)
	return true, nil
}
