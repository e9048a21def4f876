package models

import "time"

type User struct {
	BaseModel
	Name               string                 `gorm:"not null" json:"name"`
	Email              string                 `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string                 `gorm:"not null" json:"-"`
	Role               UserRole               `gorm:"type:varchar(20);default:'user'" json:"role"`
	Credits            int                    `gorm:"not null;default:0" json:"credits"`
	SubscriptionStatus UserSubscriptionStatus `gorm:"type:varchar(20);default:'free'" json:"subscription_status"`
	SubscriptionPlanID *string                `gorm:"type:uuid" json:"subscription_plan_id"`
	StripeCustomerID   string                 `gorm:"index" json:"-"`

	// Relations
	Subscriptions []Subscription      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	LedgerEntries []CreditLedgerEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Admin is a separate credential set from end users; admins never hold
// credits or subscriptions.
type Admin struct {
	BaseModel
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);default:'admin'" json:"role"`
	Active       bool       `gorm:"default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login"`
}
