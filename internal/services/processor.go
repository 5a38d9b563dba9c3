package services

import (
	"context"
	"membership-api/internal/models"
)

// SubscriptionSummary is the slice of a processor subscription the service reads.
type SubscriptionSummary struct {
	ID         string
	CustomerID string
	Status     models.SubscriptionStatus
	PriceIDs   []string
}

// HasPrice reports whether any item of the subscription uses priceID.
func (s SubscriptionSummary) HasPrice(priceID string) bool {
	for _, id := range s.PriceIDs {
		if id == priceID {
			return true
		}
	}
	return false
}

// CheckoutSessionSummary is a checkout session with its subscription expanded.
type CheckoutSessionSummary struct {
	ID                 string
	CustomerID         string
	Email              string
	SubscriptionID     string
	SubscriptionStatus models.SubscriptionStatus
}

// CheckoutRequest describes a subscription-mode hosted checkout.
type CheckoutRequest struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	CustomerID string
	Email      string
}

// PortalRequest describes a hosted billing portal session. When
// CancelSubscriptionID is set the portal opens on the cancel flow and
// redirects to AfterCancelURL once done.
type PortalRequest struct {
	CustomerID           string
	ReturnURL            string
	CancelSubscriptionID string
	AfterCancelURL       string
}

// PaymentProcessor is the external billing system.
type PaymentProcessor interface {
	GetCustomerEmail(ctx context.Context, customerID string) (string, error)
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	GetSubscriptionStatus(ctx context.Context, subscriptionID string) (models.SubscriptionStatus, error)
	ListSubscriptions(ctx context.Context, customerID string, limit int) ([]SubscriptionSummary, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionSummary, error)
	CreatePortalSession(ctx context.Context, req PortalRequest) (string, error)
}

// Mailer sends transactional email.
type Mailer interface {
	SendAccessEmail(ctx context.Context, to, accessLink string) error
	SendLoginLinkEmail(ctx context.Context, to, loginLink string) error
}
