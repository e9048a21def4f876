package repositories

import (
	"errors"
	"time"

	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct{}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{}
}

func (r *SubscriptionRepository) Create(db *gorm.DB, sub *models.Subscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepository) Update(db *gorm.DB, sub *models.Subscription) error {
	return db.Save(sub).Error
}

func (r *SubscriptionRepository) FindByStripeID(db *gorm.DB, stripeSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("Plan").First(&sub, "stripe_subscription_id = ?", stripeSubID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// FindActiveByUserID returns the user's newest active subscription.
func (r *SubscriptionRepository) FindActiveByUserID(db *gorm.DB, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) CountByStatus(db *gorm.DB, status models.SubscriptionStatus) (int64, error) {
	var count int64
	err := db.Model(&models.Subscription{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Subscription{}).Count(&count).Error
	return count, err
}

// MarkExpired flips active subscriptions whose period ended before
// the cutoff; returns affected subscriptions for user downgrade.
func (r *SubscriptionRepository) MarkExpired(db *gorm.DB, cutoff time.Time) ([]models.Subscription, error) {
	var expired []models.Subscription
	err := db.Where("status = ? AND current_period_end < ?", models.SubscriptionStatusActive, cutoff).
		Find(&expired).Error
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(expired))
	for _, sub := range expired {
		ids = append(ids, sub.ID)
	}
	err = db.Model(&models.Subscription{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": models.SubscriptionStatusExpired, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, err
	}
	return expired, nil
}
