package dto

import "time"

type UpdateUserRequest struct {
	UserID             string `json:"userId" validate:"required,uuid"`
	Role               string `json:"role" validate:"omitempty,oneof=user admin"`
	SubscriptionStatus string `json:"subscriptionStatus" validate:"omitempty,is-user-subscription-status"`
	Credits            *int   `json:"credits" validate:"omitempty,min=0"`
}

type CreatePlanRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=255"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"min=0"`
	Currency      string   `json:"currency" validate:"omitempty,len=3"`
	Interval      string   `json:"interval" validate:"omitempty,is-plan-interval"`
	IntervalCount int      `json:"intervalCount" validate:"omitempty,min=1"`
	StripePriceID string   `json:"stripePriceId"`
	Credits       int      `json:"credits" validate:"min=0"`
	Features      []string `json:"features"`
}

type UpdatePlanRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" validate:"omitempty,min=0"`
	Currency      *string  `json:"currency" validate:"omitempty,len=3"`
	Interval      *string  `json:"interval" validate:"omitempty,is-plan-interval"`
	IntervalCount *int     `json:"intervalCount" validate:"omitempty,min=1"`
	StripePriceID *string  `json:"stripePriceId"`
	Credits       *int     `json:"credits" validate:"omitempty,min=0"`
	Features      []string `json:"features"`
	Active        *bool    `json:"active"`
}

type CreateSettingRequest struct {
	SettingKey   string `json:"settingKey" validate:"required,min=1,max=255"`
	SettingValue string `json:"settingValue" validate:"required"`
	Encrypted    bool   `json:"encrypted"`
	Description  string `json:"description"`
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

// AdminUserView is a user row joined with the active plan for the
// admin user table.
type AdminUserView struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	Credits            int       `json:"credits"`
	CreatedAt          time.Time `json:"createdAt"`
	CurrentPlan        *struct {
		ID    string  `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"currentPlan"`
}

type AdminUserStats struct {
	TotalUsers        int64 `json:"totalUsers"`
	ActiveSubscribers int64 `json:"activeSubscribers"`
	FreeUsers         int64 `json:"freeUsers"`
	AdminUsers        int64 `json:"adminUsers"`
}
