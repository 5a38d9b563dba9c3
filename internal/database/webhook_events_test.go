package database

import (
	"context"
	"membership-api/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWebhookEventIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	processed, err := store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "checkout.session.completed"})
	require.NoError(t, err)
	assert.False(t, processed)

	// Redelivery before processing finished is not yet a duplicate.
	processed, err = store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "checkout.session.completed"})
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkWebhookProcessed(ctx, "evt_1", "processed", ""))

	processed, err = store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "checkout.session.completed"})
	require.NoError(t, err)
	assert.True(t, processed)

	events, err := store.ListWebhookEvents(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "processed", events[0].Outcome)
	assert.NotNil(t, events[0].ProcessedAt)
}

func TestMarkWebhookProcessedWithErrorAllowsRetry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "a"})
	require.NoError(t, err)
	require.NoError(t, store.MarkWebhookProcessed(ctx, "evt_1", "failed", "database is locked"))

	processed, err := store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "a"})
	require.NoError(t, err)
	assert.False(t, processed)

	events, err := store.ListWebhookEvents(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "database is locked", events[0].ProcessingError)
	assert.Nil(t, events[0].ProcessedAt)
}

func TestListWebhookEventsFiltersByCustomer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_1", EventType: "a", CustomerID: "cus_1"})
	require.NoError(t, err)
	_, err = store.RecordWebhookEvent(ctx, &models.WebhookEvent{EventID: "evt_2", EventType: "a", CustomerID: "cus_2"})
	require.NoError(t, err)

	events, err := store.ListWebhookEvents(ctx, "cus_2", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_2", events[0].EventID)
}
