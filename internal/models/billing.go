package models

import (
	"time"

	"gorm.io/datatypes"
)

type Plan struct {
	BaseModel
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	Currency      string         `gorm:"default:'USD'" json:"currency"`
	Interval      string         `gorm:"type:varchar(20);not null" json:"interval"` // "month", "year"
	IntervalCount int            `gorm:"default:1" json:"interval_count"`
	// NULL until an admin binds the plan to a Stripe price; unique
	// when present, so unbound plans can coexist.
	StripePriceID *string        `gorm:"uniqueIndex" json:"stripe_price_id"`
	Credits       int            `gorm:"not null;default:0" json:"credits"` // grant per billing period
	Features      datatypes.JSON `gorm:"type:jsonb" json:"features"`
	Active        bool           `gorm:"default:true" json:"active"`
}

type Subscription struct {
	BaseModel
	UserID               string             `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID               string             `gorm:"type:uuid;not null;index" json:"plan_id"`
	StripeSubscriptionID *string            `gorm:"uniqueIndex" json:"stripe_subscription_id"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	CurrentPeriodStart   time.Time          `json:"current_period_start"`
	CurrentPeriodEnd     time.Time          `json:"current_period_end"`

	// Relations
	Plan Plan `gorm:"foreignKey:PlanID" json:"plan"`
}

type Transaction struct {
	BaseModel
	UserID                string            `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID        *string           `gorm:"type:uuid;index" json:"subscription_id"`
	StripePaymentIntentID string            `json:"stripe_payment_intent_id"`
	Amount                float64           `gorm:"not null" json:"amount"`
	Currency              string            `gorm:"default:'USD'" json:"currency"`
	Status                TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Description           string            `json:"description"`
	CreditsAwarded        int               `gorm:"default:0" json:"credits_awarded"`
}

// CreditLedgerEntry is the append-only record behind User.Credits.
// The balance column on users must always equal the sum of deltas.
type CreditLedgerEntry struct {
	BaseModel
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Delta  int    `gorm:"not null" json:"delta"` // positive grant, negative debit
	Reason string `gorm:"not null" json:"reason"`
	// Provider event/invoice id; unique when present. Duplicate
	// webhook deliveries violate the index instead of double-granting.
	SourceEventID *string `gorm:"uniqueIndex" json:"source_event_id"`
	BalanceAfter  int     `gorm:"not null" json:"balance_after"`
}
