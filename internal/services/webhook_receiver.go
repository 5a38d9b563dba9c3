package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"membership-api/internal/config"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingSignature = errors.New("missing Stripe-Signature header")
	ErrInvalidSignature = errors.New("invalid Stripe signature")
)

// EventReceiver authenticates and classifies Stripe webhook deliveries
type EventReceiver struct {
	secret string
}

// NewEventReceiver creates a receiver for the given signing secret
func NewEventReceiver(secret string) *EventReceiver {
	return &EventReceiver{secret: strings.TrimSpace(secret)}
}

// Receive verifies the signature over the raw body, then parses and classifies it.
// Only a missing secret or a failed signature check return an error.
func (r *EventReceiver) Receive(payload []byte, signatureHeader string) (*models.InboundEvent, error) {
	if r.secret == "" {
		return nil, &config.ConfigError{Key: "STRIPE_WEBHOOK_SECRET"}
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, ErrMissingSignature
	}
	if err := webhook.ValidatePayload(payload, signatureHeader, r.secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Warnf("Verified webhook body is not a valid event, ignoring: %v", err)
		return &models.InboundEvent{Kind: models.EventIgnored}, nil
	}

	inbound := &models.InboundEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Kind: models.EventIgnored,
	}
	if event.Data == nil {
		return inbound, nil
	}

	switch inbound.Type {
	case "checkout.session.completed":
		var session models.CheckoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			logging.Warnf("Failed to decode checkout session for event %s: %v", event.ID, err)
			return inbound, nil
		}
		inbound.Kind = models.EventCheckoutCompleted
		inbound.Checkout = &session
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub models.SubscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			logging.Warnf("Failed to decode subscription for event %s: %v", event.ID, err)
			return inbound, nil
		}
		inbound.Kind = subscriptionKind(inbound.Type)
		inbound.Subscription = &sub
	}

	return inbound, nil
}

func subscriptionKind(eventType string) models.EventKind {
	switch eventType {
	case "customer.subscription.created":
		return models.EventSubscriptionCreated
	case "customer.subscription.deleted":
		return models.EventSubscriptionDeleted
	}
	return models.EventSubscriptionUpdated
}
