package services

import (
	"context"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/pkg/logging"
)

// Webhook acknowledgement statuses
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookFailed    = "failed"
)

// WebhookOutcome summarizes one delivery for the response and the event log.
type WebhookOutcome struct {
	EventID   string           `json:"event_id,omitempty"`
	Type      string           `json:"type,omitempty"`
	Kind      models.EventKind `json:"kind"`
	Status    string           `json:"status"`
	Action    string           `json:"action,omitempty"`
	EmailSent bool             `json:"email_sent"`
}

// WebhookService runs verify, record, reconcile, notify in that order.
type WebhookService struct {
	receiver   *EventReceiver
	store      *database.Store
	reconciler *MembershipReconciler
	dispatcher *NotificationDispatcher
}

// NewWebhookService wires the webhook pipeline
func NewWebhookService(receiver *EventReceiver, store *database.Store, reconciler *MembershipReconciler, dispatcher *NotificationDispatcher) *WebhookService {
	return &WebhookService{
		receiver:   receiver,
		store:      store,
		reconciler: reconciler,
		dispatcher: dispatcher,
	}
}

// Process handles one delivery. It returns an error only when the event could
// not be authenticated; every authenticated event is acknowledged.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signatureHeader string) (*WebhookOutcome, error) {
	event, err := s.receiver.Receive(payload, signatureHeader)
	if err != nil {
		return nil, err
	}

	outcome := &WebhookOutcome{
		EventID: event.ID,
		Type:    event.Type,
		Kind:    event.Kind,
	}
	log := logging.Logger().With().
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("customer_id", event.CustomerID()).
		Logger()

	recorded := false
	if event.ID != "" {
		already, err := s.store.RecordWebhookEvent(ctx, &models.WebhookEvent{
			EventID:    event.ID,
			EventType:  event.Type,
			CustomerID: event.CustomerID(),
		})
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to record webhook event, processing anyway")
		case already:
			log.Info().Msg("Webhook event already processed")
			outcome.Status = WebhookDuplicate
			return outcome, nil
		default:
			recorded = true
		}
	}

	if event.Kind == models.EventIgnored {
		outcome.Status = WebhookIgnored
		s.finish(ctx, recorded, outcome, "")
		return outcome, nil
	}

	result, err := s.reconciler.Reconcile(ctx, event)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		outcome.Status = WebhookFailed
		s.finish(ctx, recorded, outcome, err.Error())
		return outcome, nil
	}
	outcome.Status = WebhookProcessed
	outcome.Action = result.Action

	if event.Kind == models.EventCheckoutCompleted && result.Email != "" {
		sent, err := s.dispatcher.DispatchAccessEmail(ctx, result.Email)
		if err != nil {
			log.Error().Err(err).Str("email", result.Email).Msg("Access email failed")
		}
		outcome.EmailSent = sent
	}

	s.finish(ctx, recorded, outcome, "")
	return outcome, nil
}

func (s *WebhookService) finish(ctx context.Context, recorded bool, outcome *WebhookOutcome, processingError string) {
	if !recorded {
		return
	}
	label := outcome.Status
	if outcome.Action != "" {
		label = outcome.Status + ":" + outcome.Action
	}
	if err := s.store.MarkWebhookProcessed(ctx, outcome.EventID, label, processingError); err != nil {
		logging.Warnf("Failed to mark webhook event %s: %v", outcome.EventID, err)
	}
}
