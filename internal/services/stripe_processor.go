package services

import (
	"context"
	"errors"
	"fmt"
	"membership-api/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeProcessor implements PaymentProcessor against the Stripe API.
// The client is built once at startup and shared read-only.
type StripeProcessor struct {
	api *client.API
}

// NewStripeProcessor creates a Stripe-backed processor for the given secret key
func NewStripeProcessor(secretKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{api: sc}
}

// GetCustomerEmail returns the customer's email, or "" for a deleted or unknown customer.
func (p *StripeProcessor) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	customer, err := p.api.Customers.Get(customerID, params)
	if err != nil {
		if isResourceMissing(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	if customer.Deleted {
		return "", nil
	}
	return models.NormalizeEmail(customer.Email), nil
}

// FindCustomerByEmail returns the first customer id registered with the email, or "".
func (p *StripeProcessor) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	it := p.api.Customers.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("failed to list customers: %w", err)
	}
	return "", nil
}

// GetSubscriptionStatus fetches the live status of one subscription
func (p *StripeProcessor) GetSubscriptionStatus(ctx context.Context, subscriptionID string) (models.SubscriptionStatus, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription %s: %w", subscriptionID, err)
	}
	return models.SubscriptionStatus(sub.Status), nil
}

// ListSubscriptions returns up to limit subscriptions of the customer in any status.
func (p *StripeProcessor) ListSubscriptions(ctx context.Context, customerID string, limit int) ([]SubscriptionSummary, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true

	var out []SubscriptionSummary
	it := p.api.Subscriptions.List(params)
	for it.Next() {
		out = append(out, summarizeSubscription(it.Subscription()))
		if len(out) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return out, nil
}

// CreateCheckoutSession creates a hosted subscription checkout and returns its URL
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(req.SuccessURL),
		CancelURL:           stripe.String(req.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

// GetCheckoutSession loads a checkout session with its subscription expanded
func (p *StripeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionSummary, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("subscription")

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	summary := &CheckoutSessionSummary{
		ID:    session.ID,
		Email: models.NormalizeEmail(session.CustomerEmail),
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		summary.Email = models.NormalizeEmail(session.CustomerDetails.Email)
	}
	if session.Customer != nil {
		summary.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		summary.SubscriptionID = session.Subscription.ID
		summary.SubscriptionStatus = models.SubscriptionStatus(session.Subscription.Status)
	}
	return summary, nil
}

// CreatePortalSession opens a billing portal session and returns its URL
func (p *StripeProcessor) CreatePortalSession(ctx context.Context, req PortalRequest) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(req.CustomerID),
		ReturnURL: stripe.String(req.ReturnURL),
	}
	if req.CancelSubscriptionID != "" {
		params.FlowData = &stripe.BillingPortalSessionFlowDataParams{
			Type: stripe.String("subscription_cancel"),
			SubscriptionCancel: &stripe.BillingPortalSessionFlowDataSubscriptionCancelParams{
				Subscription: stripe.String(req.CancelSubscriptionID),
			},
			AfterCompletion: &stripe.BillingPortalSessionFlowDataAfterCompletionParams{
				Type: stripe.String("redirect"),
				Redirect: &stripe.BillingPortalSessionFlowDataAfterCompletionRedirectParams{
					ReturnURL: stripe.String(req.AfterCancelURL),
				},
			},
		}
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

func summarizeSubscription(sub *stripe.Subscription) SubscriptionSummary {
	summary := SubscriptionSummary{
		ID:     sub.ID,
		Status: models.SubscriptionStatus(sub.Status),
	}
	if sub.Customer != nil {
		summary.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item != nil && item.Price != nil {
				summary.PriceIDs = append(summary.PriceIDs, item.Price.ID)
			}
		}
	}
	return summary
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
