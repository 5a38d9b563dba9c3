package services

import (
	"context"
	"errors"
	"fmt"
	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
)

const (
	ReasonNotLoggedIn    = "not_logged_in"
	ReasonNoCustomer     = "no_customer"
	ReasonNoSubscription = "no_subscription"
	ReasonNotEntitled    = "not_entitled"

	SourceLocal = "local"
	SourceLive  = "live"

	liveSubscriptionLimit = 20
)

// ErrNotLoggedIn is returned when a status check has no identity to check.
var ErrNotLoggedIn = errors.New("not logged in")

// StatusOptions tunes a status check
type StatusOptions struct {
	// Force skips the local record and asks the processor.
	Force bool
}

// StatusResult answers "is this person a member right now".
type StatusResult struct {
	Active         bool                      `json:"active"`
	Status         models.SubscriptionStatus `json:"status,omitempty"`
	AtRisk         bool                      `json:"at_risk"`
	CanCancel      bool                      `json:"can_cancel"`
	Reason         string                    `json:"reason,omitempty"`
	Source         string                    `json:"source"`
	CustomerID     string                    `json:"-"`
	SubscriptionID string                    `json:"-"`
}

func resultFor(status models.SubscriptionStatus, source string) *StatusResult {
	res := &StatusResult{
		Active: status.IsEntitled(),
		Status: status,
		AtRisk: status.IsAtRisk(),
		Source: source,
	}
	res.CanCancel = res.Active || res.AtRisk
	if !res.Active {
		res.Reason = ReasonNotEntitled
	}
	return res
}

// StatusService resolves membership for an email, local record first.
type StatusService struct {
	store     *database.Store
	processor PaymentProcessor
	priceID   string
}

// NewStatusService creates a status service for the membership price
func NewStatusService(store *database.Store, processor PaymentProcessor, priceID string) *StatusService {
	return &StatusService{store: store, processor: processor, priceID: priceID}
}

// Check reports membership for email. The processor is consulted when no
// local record exists, the local read fails, or opts.Force is set.
func (s *StatusService) Check(ctx context.Context, email string, opts StatusOptions) (*StatusResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotLoggedIn
	}

	if !opts.Force {
		account, err := s.store.GetByEmail(ctx, email)
		switch {
		case err == nil:
			res := resultFor(account.SubscriptionStatus, SourceLocal)
			res.CustomerID = account.StripeCustomerID
			res.SubscriptionID = account.StripeSubscriptionID
			return res, nil
		case !errors.Is(err, database.ErrAccountNotFound):
			logging.Warnf("Local status read failed for %s, asking processor: %v", email, err)
		}
	}

	return s.checkLive(ctx, email)
}

func (s *StatusService) checkLive(ctx context.Context, email string) (*StatusResult, error) {
	if s.priceID == "" {
		return nil, &config.ConfigError{Key: "STRIPE_PRICE_ID"}
	}

	customerID, err := s.processor.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("customer lookup: %w", err)
	}
	if customerID == "" {
		return &StatusResult{Reason: ReasonNoCustomer, Source: SourceLive}, nil
	}

	subs, err := s.processor.ListSubscriptions(ctx, customerID, liveSubscriptionLimit)
	if err != nil {
		return nil, fmt.Errorf("subscription lookup: %w", err)
	}

	best, ok := mostRelevant(subs, s.priceID)
	if !ok {
		return &StatusResult{Reason: ReasonNoSubscription, Source: SourceLive, CustomerID: customerID}, nil
	}

	if _, err := s.store.UpsertAccount(ctx, database.AccountUpdate{
		Email:          email,
		CustomerID:     customerID,
		SubscriptionID: best.ID,
		Status:         best.Status,
	}); err != nil {
		logging.Warnf("Failed to write back live status for %s: %v", email, err)
	}

	res := resultFor(best.Status, SourceLive)
	res.CustomerID = customerID
	res.SubscriptionID = best.ID
	return res, nil
}

// mostRelevant picks the subscription for priceID: entitled first, then at risk, then any.
func mostRelevant(subs []SubscriptionSummary, priceID string) (SubscriptionSummary, bool) {
	var (
		atRisk, other *SubscriptionSummary
	)
	for i := range subs {
		sub := &subs[i]
		if !sub.HasPrice(priceID) {
			continue
		}
		switch {
		case sub.Status.IsEntitled():
			return *sub, true
		case sub.Status.IsAtRisk() && atRisk == nil:
			atRisk = sub
		case other == nil:
			other = sub
		}
	}
	if atRisk != nil {
		return *atRisk, true
	}
	if other != nil {
		return *other, true
	}
	return SubscriptionSummary{}, false
}
