package models

import (
	"strings"
	"time"
)

// SubscriptionStatus mirrors the processor's subscription status vocabulary.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusPaused            SubscriptionStatus = "paused"
)

// IsEntitled reports whether the status grants member access.
func (s SubscriptionStatus) IsEntitled() bool {
	switch s {
	case StatusActive, StatusTrialing:
		return true
	}
	return false
}

// IsAtRisk reports a payment problem that has not yet ended the subscription.
func (s SubscriptionStatus) IsAtRisk() bool {
	switch s {
	case StatusPastDue, StatusUnpaid:
		return true
	}
	return false
}

// Account is the local record of one customer's membership, keyed by email.
type Account struct {
	BaseModel

	Email                string             `json:"email" gorm:"not null;size:320;uniqueIndex"`
	StripeCustomerID     string             `json:"stripe_customer_id" gorm:"size:100;index"`
	StripeSubscriptionID string             `json:"stripe_subscription_id" gorm:"size:100"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status" gorm:"size:32"`
	StatusUpdatedAt      *time.Time         `json:"status_updated_at"`
}

// NormalizeEmail lowercases and trims an address so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
