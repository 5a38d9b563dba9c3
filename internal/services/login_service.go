package services

import (
	"context"
	"fmt"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
	"net/url"
	"time"
)

// LoginService runs the passwordless email sign-in flow
type LoginService struct {
	tokens    *LoginTokenStore
	mailer    Mailer
	siteURL   string
	ttl       time.Duration
	rateLimit time.Duration
}

// NewLoginService creates a login service
func NewLoginService(tokens *LoginTokenStore, mailer Mailer, siteURL string, ttl, rateLimit time.Duration) *LoginService {
	return &LoginService{
		tokens:    tokens,
		mailer:    mailer,
		siteURL:   siteURL,
		ttl:       ttl,
		rateLimit: rateLimit,
	}
}

// RequestLink emails a one-time sign-in link to email.
func (s *LoginService) RequestLink(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	allowed, err := s.tokens.AllowLoginRequest(ctx, email, s.rateLimit)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		return ErrRateLimited
	}

	token := s.tokens.GenerateToken()
	if err := s.tokens.StoreToken(ctx, token, email, s.ttl); err != nil {
		return fmt.Errorf("store login token: %w", err)
	}

	link := s.siteURL + "/api/auth/verify?token=" + url.QueryEscape(token)
	if err := s.mailer.SendLoginLinkEmail(ctx, email, link); err != nil {
		return fmt.Errorf("send login email: %w", err)
	}

	logging.Infof("Login link sent to %s", email)
	return nil
}

// VerifyLink consumes a token and returns the email it was issued for
func (s *LoginService) VerifyLink(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidLoginToken
	}
	return s.tokens.ConsumeToken(ctx, token)
}
