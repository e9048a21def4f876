package workers

import (
	"context"
	"time"

	"medimind_backend/internal/logger"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"

	"gorm.io/gorm"
)

// SubscriptionWorker expires subscriptions whose period ended without
// a renewal event. The webhook reconciler is the primary path; this
// is the safety net for missed deliveries.
type SubscriptionWorker struct {
	db       *gorm.DB
	subRepo  *repositories.SubscriptionRepository
	userRepo *repositories.UserRepository
	interval time.Duration
	grace    time.Duration
}

func NewSubscriptionWorker(db *gorm.DB) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:       db,
		subRepo:  repositories.NewSubscriptionRepository(),
		userRepo: repositories.NewUserRepository(),
		interval: 6 * time.Hour,
		// Stripe retries failed payments for a few days before
		// cancelling, so expiry waits out that window.
		grace: 72 * time.Hour,
	}
}

func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SubscriptionWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			if err := w.ExpireOverdue(); err != nil {
				logger.Error("Failed to expire overdue subscriptions", "error", err)
			}
		}
	}
}

// ExpireOverdue marks past-period subscriptions expired and downgrades
// their users. Exported so tests can drive it without the ticker.
func (w *SubscriptionWorker) ExpireOverdue() error {
	cutoff := time.Now().Add(-w.grace)

	return w.db.Transaction(func(tx *gorm.DB) error {
		expired, err := w.subRepo.MarkExpired(tx, cutoff)
		if err != nil {
			return err
		}

		for _, sub := range expired {
			if _, err := w.userRepo.UpdateFields(tx, sub.UserID, map[string]interface{}{
				"subscription_status":  models.UserSubscriptionFree,
				"subscription_plan_id": nil,
			}); err != nil {
				return err
			}
		}

		if len(expired) > 0 {
			logger.Info("Expired overdue subscriptions", "count", len(expired))
		}
		return nil
	})
}
