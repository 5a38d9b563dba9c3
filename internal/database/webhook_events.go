package database

import (
	"context"
	"membership-api/internal/models"

	"gorm.io/gorm/clause"
)

// RecordWebhookEvent inserts the event if it is new and reports whether an
// earlier delivery already finished processing it.
func (s *Store) RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event).Error
	if err != nil {
		return false, err
	}

	var stored models.WebhookEvent
	if err := s.db.WithContext(ctx).Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, err
	}
	return stored.ProcessedAt != nil, nil
}

// MarkWebhookProcessed stamps the outcome of an event's side effects.
// A non-empty processingError leaves processed_at unset so a redelivery runs again.
func (s *Store) MarkWebhookProcessed(ctx context.Context, eventID, outcome, processingError string) error {
	updates := map[string]interface{}{
		"outcome":          outcome,
		"processing_error": processingError,
	}
	if processingError == "" {
		now := s.now()
		updates["processed_at"] = &now
	}
	return s.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error
}

// ListWebhookEvents returns the most recent events, optionally for one customer.
func (s *Store) ListWebhookEvents(ctx context.Context, customerID string, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	db := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if customerID != "" {
		db = db.Where("customer_id = ?", customerID)
	}
	err := db.Find(&events).Error
	return events, err
}
