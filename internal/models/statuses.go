package models

type UserRole string
type UserSubscriptionStatus string
type SubscriptionStatus string
type TransactionStatus string
type SessionStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	// User-level entitlement status, derived from billing events.
	UserSubscriptionFree     UserSubscriptionStatus = "free"
	UserSubscriptionActive   UserSubscriptionStatus = "active"
	UserSubscriptionInactive UserSubscriptionStatus = "inactive"

	// Provider-reported subscription lifecycle.
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"

	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"

	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)
