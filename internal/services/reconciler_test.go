package services

import (
	"context"
	"errors"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutEvent(id, customer, subscription, detailsEmail, customerEmail string) *models.InboundEvent {
	session := &models.CheckoutSessionPayload{
		ID:            "cs_" + id,
		Customer:      customer,
		Subscription:  subscription,
		CustomerEmail: customerEmail,
	}
	session.CustomerDetails.Email = detailsEmail
	return &models.InboundEvent{ID: id, Type: "checkout.session.completed", Kind: models.EventCheckoutCompleted, Checkout: session}
}

func subscriptionEvent(id string, kind models.EventKind, subID, customer, status string) *models.InboundEvent {
	return &models.InboundEvent{
		ID:           id,
		Kind:         kind,
		Subscription: &models.SubscriptionPayload{ID: subID, Customer: customer, Status: status},
	}
}

func TestReconcileCheckoutUsesLiveSubscriptionStatus(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{
		GetSubscriptionStatusFunc: func(ctx context.Context, id string) (models.SubscriptionStatus, error) {
			assert.Equal(t, "sub_1", id)
			return models.StatusTrialing, nil
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	result, err := reconciler.Reconcile(context.Background(), checkoutEvent("evt_1", "cus_1", "sub_1", "Ana@Example.com", ""))
	require.NoError(t, err)
	assert.Equal(t, ActionUpserted, result.Action)
	assert.Equal(t, "ana@example.com", result.Email)

	account, err := store.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", account.StripeCustomerID)
	assert.Equal(t, "sub_1", account.StripeSubscriptionID)
	assert.Equal(t, models.StatusTrialing, account.SubscriptionStatus)
}

func TestReconcileCheckoutWithoutSubscriptionIsActive(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{}
	reconciler := NewMembershipReconciler(store, processor)

	_, err := reconciler.Reconcile(context.Background(), checkoutEvent("evt_1", "cus_1", "", "", "ana@example.com"))
	require.NoError(t, err)

	account, err := store.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, account.SubscriptionStatus)
	assert.Zero(t, processor.callCount("GetSubscriptionStatus"))
}

func TestReconcileCheckoutResolvesEmailFromCustomer(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{
		GetCustomerEmailFunc: func(ctx context.Context, id string) (string, error) {
			return "bo@example.com", nil
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	result, err := reconciler.Reconcile(context.Background(), checkoutEvent("evt_1", "cus_1", "sub_1", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", result.Email)
}

func TestReconcileCheckoutWithoutEmailIsDropped(t *testing.T) {
	store := newTestStore(t)
	reconciler := NewMembershipReconciler(store, &fakeProcessor{})

	result, err := reconciler.Reconcile(context.Background(), checkoutEvent("evt_1", "cus_1", "sub_1", "", ""))
	require.NoError(t, err)
	assert.Equal(t, ActionDropped, result.Action)

	accounts, _, err := store.ListAccounts(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestReconcileCheckoutLiveLookupFailureKeepsStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.UpsertAccount(ctx, database.AccountUpdate{Email: "ana@example.com", Status: models.StatusActive})
	require.NoError(t, err)

	processor := &fakeProcessor{
		GetSubscriptionStatusFunc: func(ctx context.Context, id string) (models.SubscriptionStatus, error) {
			return "", errors.New("stripe unavailable")
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	_, err = reconciler.Reconcile(ctx, checkoutEvent("evt_1", "cus_1", "sub_1", "ana@example.com", ""))
	require.NoError(t, err)

	account, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", account.StripeCustomerID)
	assert.Equal(t, "sub_1", account.StripeSubscriptionID)
	assert.Equal(t, models.StatusActive, account.SubscriptionStatus)
}

func TestReconcileCheckoutLiveLookupFailureOnNewRecord(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{
		GetSubscriptionStatusFunc: func(ctx context.Context, id string) (models.SubscriptionStatus, error) {
			return "", errors.New("stripe unavailable")
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	_, err := reconciler.Reconcile(context.Background(), checkoutEvent("evt_1", "cus_1", "sub_1", "ana@example.com", ""))
	require.NoError(t, err)

	account, err := store.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIncomplete, account.SubscriptionStatus)
}

func TestReconcileCheckoutIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	reconciler := NewMembershipReconciler(store, &fakeProcessor{})
	ctx := context.Background()
	event := checkoutEvent("evt_1", "cus_1", "sub_1", "ana@example.com", "")

	_, err := reconciler.Reconcile(ctx, event)
	require.NoError(t, err)
	first, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)

	_, err = reconciler.Reconcile(ctx, event)
	require.NoError(t, err)
	second, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StripeCustomerID, second.StripeCustomerID)
	assert.Equal(t, first.StripeSubscriptionID, second.StripeSubscriptionID)
	assert.Equal(t, first.SubscriptionStatus, second.SubscriptionStatus)

	_, total, err := store.ListAccounts(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestReconcileSubscriptionOverwritesUnconditionally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.UpsertAccount(ctx, database.AccountUpdate{Email: "ana@example.com", CustomerID: "cus_1", SubscriptionID: "sub_1", Status: models.StatusActive})
	require.NoError(t, err)
	reconciler := NewMembershipReconciler(store, &fakeProcessor{})

	result, err := reconciler.Reconcile(ctx, subscriptionEvent("evt_2", models.EventSubscriptionUpdated, "sub_1", "cus_1", "past_due"))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, result.Action)

	account, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPastDue, account.SubscriptionStatus)
}

func TestReconcileSubscriptionLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.UpsertAccount(ctx, database.AccountUpdate{Email: "ana@example.com", CustomerID: "cus_1", Status: models.StatusActive})
	require.NoError(t, err)
	reconciler := NewMembershipReconciler(store, &fakeProcessor{})

	// The deletion arrives first, the older update after it.
	_, err = reconciler.Reconcile(ctx, subscriptionEvent("evt_3", models.EventSubscriptionDeleted, "sub_1", "cus_1", "canceled"))
	require.NoError(t, err)
	_, err = reconciler.Reconcile(ctx, subscriptionEvent("evt_2", models.EventSubscriptionUpdated, "sub_1", "cus_1", "active"))
	require.NoError(t, err)

	account, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, account.SubscriptionStatus)
}

func TestReconcileSubscriptionDeletedWithoutStatusIsCanceled(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.UpsertAccount(ctx, database.AccountUpdate{Email: "ana@example.com", CustomerID: "cus_1", Status: models.StatusActive})
	require.NoError(t, err)
	reconciler := NewMembershipReconciler(store, &fakeProcessor{})

	_, err = reconciler.Reconcile(ctx, subscriptionEvent("evt_3", models.EventSubscriptionDeleted, "sub_1", "cus_1", ""))
	require.NoError(t, err)

	account, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, account.SubscriptionStatus)
}

func TestReconcileSubscriptionWithoutRecordResolvesCustomer(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{
		GetCustomerEmailFunc: func(ctx context.Context, id string) (string, error) {
			assert.Equal(t, "cus_9", id)
			return "new@example.com", nil
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	result, err := reconciler.Reconcile(context.Background(), subscriptionEvent("evt_1", models.EventSubscriptionCreated, "sub_9", "cus_9", "active"))
	require.NoError(t, err)
	assert.Equal(t, ActionUpserted, result.Action)

	account, err := store.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_9", account.StripeCustomerID)
	assert.Equal(t, "sub_9", account.StripeSubscriptionID)
	assert.Equal(t, models.StatusActive, account.SubscriptionStatus)
}

func TestReconcileSubscriptionUnresolvableCustomerIsDropped(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{
		GetCustomerEmailFunc: func(ctx context.Context, id string) (string, error) {
			return "", errors.New("stripe unavailable")
		},
	}
	reconciler := NewMembershipReconciler(store, processor)

	result, err := reconciler.Reconcile(context.Background(), subscriptionEvent("evt_1", models.EventSubscriptionUpdated, "sub_9", "cus_9", "active"))
	require.NoError(t, err)
	assert.Equal(t, ActionDropped, result.Action)
}

func TestReconcileIgnoredEvent(t *testing.T) {
	store := newTestStore(t)
	processor := &fakeProcessor{}
	reconciler := NewMembershipReconciler(store, processor)

	result, err := reconciler.Reconcile(context.Background(), &models.InboundEvent{ID: "evt_1", Kind: models.EventIgnored})
	require.NoError(t, err)
	assert.Equal(t, ActionIgnored, result.Action)
	assert.Empty(t, processor.calls)
}
