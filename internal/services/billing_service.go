package services

import (
	"context"
	"errors"
	"fmt"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"net/url"
)

var (
	ErrNoCustomer     = errors.New("no billing customer found")
	ErrNoSubscription = errors.New("no subscription on file")
)

// SessionVerification is the post-checkout view of a session
type SessionVerification struct {
	OK     bool                      `json:"ok"`
	Active bool                      `json:"active"`
	Status models.SubscriptionStatus `json:"status,omitempty"`
}

// AccessLinkResult carries the class link for entitled callers only
type AccessLinkResult struct {
	OK     bool   `json:"ok"`
	Active bool   `json:"active"`
	URL    string `json:"url,omitempty"`
}

// BillingService creates hosted checkout and portal sessions.
type BillingService struct {
	cfg       *config.Config
	store     *database.Store
	processor PaymentProcessor
	status    *StatusService
}

// NewBillingService creates a billing service
func NewBillingService(cfg *config.Config, store *database.Store, processor PaymentProcessor, status *StatusService) *BillingService {
	return &BillingService{cfg: cfg, store: store, processor: processor, status: status}
}

// CreateCheckout returns the hosted checkout URL. A signed-in caller with a
// known customer is attached to that customer.
func (s *BillingService) CreateCheckout(ctx context.Context, email string) (string, error) {
	if err := s.cfg.Require("SITE_URL", "STRIPE_PRICE_ID", "STRIPE_SECRET_KEY"); err != nil {
		return "", err
	}

	req := CheckoutRequest{
		PriceID:    s.cfg.StripePriceID,
		SuccessURL: s.cfg.SiteURL + "/members?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.SiteURL + "/pricing",
	}
	if email = models.NormalizeEmail(email); email != "" {
		req.Email = email
		if account, err := s.store.GetByEmail(ctx, email); err == nil && account.StripeCustomerID != "" {
			req.CustomerID = account.StripeCustomerID
		}
	}

	return s.processor.CreateCheckoutSession(ctx, req)
}

// CreatePortal returns a billing portal URL for the customer behind a
// checkout session, or for the signed-in caller when no session is given.
func (s *BillingService) CreatePortal(ctx context.Context, sessionID, email string) (string, error) {
	if err := s.cfg.Require("SITE_URL", "STRIPE_SECRET_KEY"); err != nil {
		return "", err
	}

	var customerID, returnURL string
	switch {
	case sessionID != "":
		session, err := s.processor.GetCheckoutSession(ctx, sessionID)
		if err != nil {
			return "", err
		}
		customerID = session.CustomerID
		returnURL = s.cfg.SiteURL + "/members?session_id=" + url.QueryEscape(sessionID)
	case email != "":
		account, err := s.store.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, database.ErrAccountNotFound) {
			return "", err
		}
		if account != nil {
			customerID = account.StripeCustomerID
		}
		returnURL = s.cfg.SiteURL + "/members"
	default:
		return "", ErrNotLoggedIn
	}

	if customerID == "" {
		return "", ErrNoCustomer
	}

	return s.processor.CreatePortalSession(ctx, PortalRequest{
		CustomerID: customerID,
		ReturnURL:  returnURL,
	})
}

// CreateCancelPortal returns a portal URL opened on the cancel flow of the
// caller's stored subscription.
func (s *BillingService) CreateCancelPortal(ctx context.Context, email string) (string, error) {
	if email = models.NormalizeEmail(email); email == "" {
		return "", ErrNotLoggedIn
	}
	if err := s.cfg.Require("SITE_URL", "STRIPE_SECRET_KEY"); err != nil {
		return "", err
	}

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return "", ErrNoSubscription
		}
		return "", err
	}
	if account.StripeCustomerID == "" || account.StripeSubscriptionID == "" {
		return "", ErrNoSubscription
	}

	return s.processor.CreatePortalSession(ctx, PortalRequest{
		CustomerID:           account.StripeCustomerID,
		ReturnURL:            s.cfg.SiteURL + "/members",
		CancelSubscriptionID: account.StripeSubscriptionID,
		AfterCancelURL:       s.cfg.SiteURL + "/members?cancel=1",
	})
}

// VerifySession reports whether a completed checkout granted membership
func (s *BillingService) VerifySession(ctx context.Context, sessionID string) (*SessionVerification, error) {
	if err := s.cfg.Require("STRIPE_SECRET_KEY"); err != nil {
		return nil, err
	}
	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	return &SessionVerification{
		OK:     true,
		Active: session.SubscriptionStatus.IsEntitled(),
		Status: session.SubscriptionStatus,
	}, nil
}

// AccessLink returns the class link when the checkout session or the
// signed-in caller is entitled.
func (s *BillingService) AccessLink(ctx context.Context, sessionID, email string) (*AccessLinkResult, error) {
	if err := s.cfg.Require("ACCESS_LINK_URL"); err != nil {
		return nil, err
	}

	var active bool
	switch {
	case sessionID != "":
		verification, err := s.VerifySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		active = verification.Active
	case email != "":
		res, err := s.status.Check(ctx, email, StatusOptions{})
		if err != nil {
			return nil, err
		}
		active = res.Active
	default:
		return nil, ErrNotLoggedIn
	}

	result := &AccessLinkResult{OK: true, Active: active}
	if active {
		result.URL = s.cfg.AccessLinkURL
	}
	return result, nil
}
