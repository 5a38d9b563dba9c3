package services

import (
	"context"
	"encoding/json"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

// fakeProcessor implements PaymentProcessor with overridable funcs.
type fakeProcessor struct {
	GetCustomerEmailFunc      func(ctx context.Context, customerID string) (string, error)
	FindCustomerByEmailFunc   func(ctx context.Context, email string) (string, error)
	GetSubscriptionStatusFunc func(ctx context.Context, subscriptionID string) (models.SubscriptionStatus, error)
	ListSubscriptionsFunc     func(ctx context.Context, customerID string, limit int) ([]SubscriptionSummary, error)
	CreateCheckoutSessionFunc func(ctx context.Context, req CheckoutRequest) (string, error)
	GetCheckoutSessionFunc    func(ctx context.Context, sessionID string) (*CheckoutSessionSummary, error)
	CreatePortalSessionFunc   func(ctx context.Context, req PortalRequest) (string, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeProcessor) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeProcessor) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeProcessor) GetCustomerEmail(ctx context.Context, customerID string) (string, error) {
	f.record("GetCustomerEmail")
	if f.GetCustomerEmailFunc != nil {
		return f.GetCustomerEmailFunc(ctx, customerID)
	}
	return "", nil
}

func (f *fakeProcessor) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	f.record("FindCustomerByEmail")
	if f.FindCustomerByEmailFunc != nil {
		return f.FindCustomerByEmailFunc(ctx, email)
	}
	return "", nil
}

func (f *fakeProcessor) GetSubscriptionStatus(ctx context.Context, subscriptionID string) (models.SubscriptionStatus, error) {
	f.record("GetSubscriptionStatus")
	if f.GetSubscriptionStatusFunc != nil {
		return f.GetSubscriptionStatusFunc(ctx, subscriptionID)
	}
	return models.StatusActive, nil
}

func (f *fakeProcessor) ListSubscriptions(ctx context.Context, customerID string, limit int) ([]SubscriptionSummary, error) {
	f.record("ListSubscriptions")
	if f.ListSubscriptionsFunc != nil {
		return f.ListSubscriptionsFunc(ctx, customerID, limit)
	}
	return nil, nil
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	f.record("CreateCheckoutSession")
	if f.CreateCheckoutSessionFunc != nil {
		return f.CreateCheckoutSessionFunc(ctx, req)
	}
	return "https://checkout.stripe.test/session", nil
}

func (f *fakeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionSummary, error) {
	f.record("GetCheckoutSession")
	if f.GetCheckoutSessionFunc != nil {
		return f.GetCheckoutSessionFunc(ctx, sessionID)
	}
	return &CheckoutSessionSummary{ID: sessionID}, nil
}

func (f *fakeProcessor) CreatePortalSession(ctx context.Context, req PortalRequest) (string, error) {
	f.record("CreatePortalSession")
	if f.CreatePortalSessionFunc != nil {
		return f.CreatePortalSessionFunc(ctx, req)
	}
	return "https://billing.stripe.test/portal", nil
}

type sentEmail struct {
	Kind string
	To   string
	Link string
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendAccessEmail(ctx context.Context, to, accessLink string) error {
	return m.send("access", to, accessLink)
}

func (m *fakeMailer) SendLoginLinkEmail(ctx context.Context, to, loginLink string) error {
	return m.send("login", to, loginLink)
}

func (m *fakeMailer) send(kind, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{Kind: kind, To: to, Link: link})
	return nil
}

func (m *fakeMailer) Sent() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentEmail(nil), m.sent...)
}

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database.NewStore(db)
}

func eventJSON(t *testing.T, id, eventType string, object interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2025-03-31.basil",
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)
	return body
}

func signPayload(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Header
}

func checkoutObject(customer, subscription, email string) map[string]interface{} {
	return map[string]interface{}{
		"id":               "cs_test_1",
		"object":           "checkout.session",
		"mode":             "subscription",
		"customer":         customer,
		"subscription":     subscription,
		"customer_email":   nil,
		"customer_details": map[string]interface{}{"email": email},
	}
}

func subscriptionObject(id, customer, status string) map[string]interface{} {
	return map[string]interface{}{
		"id":       id,
		"object":   "subscription",
		"customer": customer,
		"status":   status,
		"items": map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{"price": map[string]interface{}{"id": "price_member"}},
			},
		},
	}
}
