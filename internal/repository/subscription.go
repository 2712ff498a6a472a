package repository

import (
	"context"
	"errors"

	"eventhub/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository defines the interface for web-push subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.PushSubscription) error
	FindByPair(ctx context.Context, userID uint, endpoint string) (*models.PushSubscription, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.PushSubscription, error)
	Delete(ctx context.Context, id uint) error
	DeleteByPair(ctx context.Context, userID uint, endpoint string) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.PushSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindByPair returns nil, nil when no subscription matches.
func (r *subscriptionRepository) FindByPair(ctx context.Context, userID uint, endpoint string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ? AND endpoint = ?", userID, endpoint).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID uint) ([]*models.PushSubscription, error) {
	var subs []*models.PushSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PushSubscription{}, id).Error
}

func (r *subscriptionRepository) DeleteByPair(ctx context.Context, userID uint, endpoint string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{})
	return result.RowsAffected, result.Error
}
