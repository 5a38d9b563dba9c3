package database

import (
	"context"
	"errors"
	"membership-api/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAccountNotFound is returned when no Account Record exists for a key.
var ErrAccountNotFound = errors.New("account not found")

// Store persists Account Records and the webhook event log.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore wraps an open gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// AccountUpdate carries the fields a reconciliation wants to write.
// Empty strings mean "leave as is".
type AccountUpdate struct {
	Email          string
	CustomerID     string
	SubscriptionID string
	Status         models.SubscriptionStatus
}

// GetByEmail 通过邮箱获取账户
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCustomerID returns every record linked to a processor customer.
func (s *Store) FindByCustomerID(ctx context.Context, customerID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("stripe_customer_id = ?", customerID).
		Order("id").
		Find(&accounts).Error
	return accounts, err
}

// UpsertAccount creates or updates the record for an email in one statement.
// Only non-empty fields overwrite; a new record without a status starts as incomplete.
func (s *Store) UpsertAccount(ctx context.Context, update AccountUpdate) (*models.Account, error) {
	email := models.NormalizeEmail(update.Email)
	if email == "" {
		return nil, errors.New("email is required")
	}

	now := s.now()
	account := models.Account{
		Email:                email,
		StripeCustomerID:     update.CustomerID,
		StripeSubscriptionID: update.SubscriptionID,
		SubscriptionStatus:   update.Status,
		StatusUpdatedAt:      &now,
	}
	if account.SubscriptionStatus == "" {
		account.SubscriptionStatus = models.StatusIncomplete
	}

	columns := []string{"updated_at", "deleted_at"}
	if update.CustomerID != "" {
		columns = append(columns, "stripe_customer_id")
	}
	if update.SubscriptionID != "" {
		columns = append(columns, "stripe_subscription_id")
	}
	if update.Status != "" {
		columns = append(columns, "subscription_status", "status_updated_at")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&account).Error
	if err != nil {
		return nil, err
	}

	return s.GetByEmail(ctx, email)
}

// UpdateSubscriptionByCustomer overwrites subscription id and status on every
// record linked to the customer in a single UPDATE and reports how many changed.
func (s *Store) UpdateSubscriptionByCustomer(ctx context.Context, customerID, subscriptionID string, status models.SubscriptionStatus) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("stripe_customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"stripe_subscription_id": subscriptionID,
			"subscription_status":    status,
			"status_updated_at":      s.now(),
		})
	return result.RowsAffected, result.Error
}

// ListAccounts returns a page of records, newest first, with the total count.
func (s *Store) ListAccounts(ctx context.Context, offset, limit int) ([]models.Account, int64, error) {
	var (
		accounts []models.Account
		total    int64
	)
	db := s.db.WithContext(ctx).Model(&models.Account{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, total, err
}
