package dto

import "medimind_backend/internal/models"

type CheckoutRequest struct {
	PlanID string `json:"planId" validate:"required,uuid"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

// PlanView is the plan representation for end users, with the
// caller's current-plan flag resolved.
type PlanView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	Interval      string   `json:"interval"`
	IntervalCount int      `json:"interval_count"`
	StripePriceID string   `json:"stripe_price_id"`
	Credits       int      `json:"credits"`
	Features      []string `json:"features"`
	Active        bool     `json:"active"`
	IsCurrentPlan bool     `json:"isCurrentPlan"`
}

type PlanListResponse struct {
	Plans               []PlanView           `json:"plans"`
	CurrentSubscription *models.Subscription `json:"currentSubscription"`
}

type ProfileResponse struct {
	User          *models.User         `json:"user"`
	Subscription  *models.Subscription `json:"subscription"`
	SessionsCount int64                `json:"sessionsCount"`
	TotalSpent    float64              `json:"totalSpent"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}
