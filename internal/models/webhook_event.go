package models

import (
	"time"
)

// WebhookEvent logs every verified processor event by id.
// A row with ProcessedAt set means side effects already ran for that event.
type WebhookEvent struct {
	BaseModel

	EventID         string     `json:"event_id" gorm:"not null;size:255;uniqueIndex"`
	EventType       string     `json:"event_type" gorm:"not null;size:100;index"`
	CustomerID      string     `json:"customer_id" gorm:"size:100;index"`
	Outcome         string     `json:"outcome" gorm:"size:64"`
	ProcessedAt     *time.Time `json:"processed_at"`
	ProcessingError string     `json:"processing_error" gorm:"type:text"`
}
