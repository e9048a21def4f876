package repositories

import (
	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepository holds the aggregate queries behind the admin
// dashboard and analytics pages.
type AnalyticsRepository struct{}

func NewAnalyticsRepository() *AnalyticsRepository {
	return &AnalyticsRepository{}
}

func (r *AnalyticsRepository) UsersBySubscriptionStatus(db *gorm.DB) ([]dto.StatusCount, error) {
	var rows []dto.StatusCount
	err := db.Model(&models.User{}).
		Select("subscription_status AS status, COUNT(*) AS count").
		Group("subscription_status").
		Scan(&rows).Error
	return rows, err
}

// TopPlans ranks active plans by subscriber count with their revenue.
func (r *AnalyticsRepository) TopPlans(db *gorm.DB, limit int) ([]dto.TopPlan, error) {
	var rows []dto.TopPlan
	err := db.Model(&models.Plan{}).
		Select(`plans.name AS plan_name,
			COUNT(subscriptions.id) AS subscriber_count,
			COALESCE(SUM(transactions.amount), 0) AS revenue`).
		Joins("LEFT JOIN subscriptions ON subscriptions.plan_id = plans.id AND subscriptions.status = ?", models.SubscriptionStatusActive).
		Joins("LEFT JOIN transactions ON transactions.subscription_id = subscriptions.id AND transactions.status = ?", models.TransactionStatusCompleted).
		Group("plans.name").
		Order("subscriber_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// UsersWithPlan joins each user with their active plan for the admin
// user table.
func (r *AnalyticsRepository) UsersWithPlan(db *gorm.DB) ([]dto.AdminUserView, error) {
	type row struct {
		models.User
		PlanID    *string
		PlanName  *string
		PlanPrice *float64
	}

	var raw []row
	err := db.Model(&models.User{}).
		Select(`users.*, plans.id AS plan_id, plans.name AS plan_name, plans.price AS plan_price`).
		Joins(`LEFT JOIN subscriptions ON subscriptions.user_id = users.id AND subscriptions.status = ?`, models.SubscriptionStatusActive).
		Joins(`LEFT JOIN plans ON plans.id = subscriptions.plan_id`).
		Order("users.created_at DESC").
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	views := make([]dto.AdminUserView, 0, len(raw))
	for _, item := range raw {
		view := dto.AdminUserView{
			ID:                 item.ID,
			Name:               item.Name,
			Email:              item.Email,
			Role:               string(item.Role),
			SubscriptionStatus: string(item.SubscriptionStatus),
			Credits:            item.Credits,
			CreatedAt:          item.CreatedAt,
		}
		if item.PlanID != nil {
			view.CurrentPlan = &struct {
				ID    string  `json:"id"`
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			}{ID: *item.PlanID, Name: *item.PlanName, Price: *item.PlanPrice}
		}
		views = append(views, view)
	}
	return views, nil
}
