package services

import (
	"context"
	"fmt"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
	"strings"
)

// Reconcile outcomes
const (
	ActionUpserted = "upserted"
	ActionUpdated  = "updated"
	ActionDropped  = "dropped"
	ActionIgnored  = "ignored"
)

// ReconcileResult describes what a reconciliation did to local state
type ReconcileResult struct {
	Action       string
	Email        string
	Status       models.SubscriptionStatus
	RowsAffected int64
}

// MembershipReconciler applies processor events to Account Records.
type MembershipReconciler struct {
	store     *database.Store
	processor PaymentProcessor
}

// NewMembershipReconciler creates a reconciler
func NewMembershipReconciler(store *database.Store, processor PaymentProcessor) *MembershipReconciler {
	return &MembershipReconciler{store: store, processor: processor}
}

// Reconcile applies one verified event. Replaying the same event converges
// to the same record.
func (r *MembershipReconciler) Reconcile(ctx context.Context, event *models.InboundEvent) (*ReconcileResult, error) {
	switch {
	case event.Kind == models.EventCheckoutCompleted && event.Checkout != nil:
		return r.reconcileCheckout(ctx, event)
	case event.Kind.IsSubscriptionChange() && event.Subscription != nil:
		return r.reconcileSubscription(ctx, event)
	}
	return &ReconcileResult{Action: ActionIgnored}, nil
}

func (r *MembershipReconciler) reconcileCheckout(ctx context.Context, event *models.InboundEvent) (*ReconcileResult, error) {
	session := event.Checkout
	log := logging.Logger().With().
		Str("event_id", event.ID).
		Str("session_id", session.ID).
		Str("customer_id", session.Customer).
		Str("subscription_id", session.Subscription).
		Logger()

	email := models.NormalizeEmail(session.CustomerDetails.Email)
	if email == "" {
		email = models.NormalizeEmail(session.CustomerEmail)
	}
	if email == "" && session.Customer != "" {
		resolved, err := r.processor.GetCustomerEmail(ctx, session.Customer)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to resolve customer email for checkout")
		}
		email = resolved
	}
	if email == "" {
		log.Warn().Msg("Checkout completed without a resolvable email, dropping")
		return &ReconcileResult{Action: ActionDropped}, nil
	}

	// Without a subscription the session itself is the purchase.
	status := models.StatusActive
	if session.Subscription != "" {
		live, err := r.processor.GetSubscriptionStatus(ctx, session.Subscription)
		if err != nil {
			log.Warn().Err(err).Msg("Live subscription lookup failed, storing ids without status")
			status = ""
		} else {
			status = live
		}
	}

	account, err := r.store.UpsertAccount(ctx, database.AccountUpdate{
		Email:          email,
		CustomerID:     strings.TrimSpace(session.Customer),
		SubscriptionID: strings.TrimSpace(session.Subscription),
		Status:         status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	log.Info().Str("status", string(account.SubscriptionStatus)).Msg("Checkout reconciled")
	return &ReconcileResult{
		Action:       ActionUpserted,
		Email:        account.Email,
		Status:       account.SubscriptionStatus,
		RowsAffected: 1,
	}, nil
}

func (r *MembershipReconciler) reconcileSubscription(ctx context.Context, event *models.InboundEvent) (*ReconcileResult, error) {
	sub := event.Subscription
	log := logging.Logger().With().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("customer_id", sub.Customer).
		Str("subscription_id", sub.ID).
		Logger()

	if sub.Customer == "" {
		log.Warn().Msg("Subscription event without customer, dropping")
		return &ReconcileResult{Action: ActionDropped}, nil
	}

	status := models.SubscriptionStatus(sub.Status)
	if status == "" && event.Kind == models.EventSubscriptionDeleted {
		status = models.StatusCanceled
	}

	rows, err := r.store.UpdateSubscriptionByCustomer(ctx, sub.Customer, sub.ID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if rows > 0 {
		log.Info().Int64("rows", rows).Str("status", string(status)).Msg("Subscription reconciled")
		return &ReconcileResult{Action: ActionUpdated, Status: status, RowsAffected: rows}, nil
	}

	email, err := r.processor.GetCustomerEmail(ctx, sub.Customer)
	if err != nil {
		log.Warn().Err(err).Msg("No local record and customer lookup failed, dropping")
		return &ReconcileResult{Action: ActionDropped}, nil
	}
	if email == "" {
		log.Warn().Msg("No local record and customer has no email, dropping")
		return &ReconcileResult{Action: ActionDropped}, nil
	}

	account, err := r.store.UpsertAccount(ctx, database.AccountUpdate{
		Email:          email,
		CustomerID:     sub.Customer,
		SubscriptionID: sub.ID,
		Status:         status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	log.Info().Str("email", account.Email).Str("status", string(account.SubscriptionStatus)).Msg("Subscription reconciled into new record")
	return &ReconcileResult{
		Action:       ActionUpserted,
		Email:        account.Email,
		Status:       account.SubscriptionStatus,
		RowsAffected: 1,
	}, nil
}
