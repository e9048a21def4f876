package services

import (
	"errors"

	"medimind_backend/internal/config"
	"medimind_backend/internal/dto"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"gorm.io/gorm"
)

// BillingService owns the outbound Stripe calls: checkout sessions,
// customers and the billing portal. Inbound webhook processing lives
// in WebhookService.
type BillingService interface {
	CreateCheckout(db *gorm.DB, userID, planID string) (*dto.CheckoutResponse, error)
	CreatePortal(db *gorm.DB, userID string) (*dto.PortalResponse, error)
}

type billingService struct {
	sc       *client.API
	userRepo *repositories.UserRepository
	planRepo *repositories.PlanRepository
}

func NewBillingService(
	sc *client.API,
	userRepo *repositories.UserRepository,
	planRepo *repositories.PlanRepository,
) BillingService {
	return &billingService{sc: sc, userRepo: userRepo, planRepo: planRepo}
}

func (s *billingService) CreateCheckout(db *gorm.DB, userID, planID string) (*dto.CheckoutResponse, error) {
	plan, err := s.planRepo.FindByID(db, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	if !plan.Active || plan.StripePriceID == nil {
		return nil, apperrors.ErrInvalidOperation("billing", "Plan is not available for purchase")
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(db, user.ID, user.Email, user.Name, user.StripeCustomerID)
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "billing", "Failed to create payment customer")
	}

	cfg := config.GetConfig()
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(cfg.Stripe.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cfg.Stripe.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(*plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// The webhook reconciler resolves the grant from these,
		// never from a follow-up API call.
		Metadata: map[string]string{
			"user_id": user.ID,
			"plan_id": plan.ID,
		},
	}

	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "billing", "Failed to create checkout session")
	}

	return &dto.CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *billingService) CreatePortal(db *gorm.DB, userID string) (*dto.PortalResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, apperrors.ErrInvalidOperation("billing", "No billing account for this user")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(config.GetConfig().Stripe.PortalReturnURL),
	}

	sess, err := s.sc.BillingPortalSessions.New(params)
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "billing", "Failed to create billing portal session")
	}

	return &dto.PortalResponse{URL: sess.URL}, nil
}

func (s *billingService) ensureCustomer(db *gorm.DB, userID, userEmail, userName, existing string) (string, error) {
	if existing != "" {
		return existing, nil
	}

	cust, err := s.sc.Customers.New(&stripe.CustomerParams{
		Email:    stripe.String(userEmail),
		Name:     stripe.String(userName),
		Metadata: map[string]string{"user_id": userID},
	})
	if err != nil {
		return "", err
	}

	if _, err := s.userRepo.UpdateFields(db, userID, map[string]interface{}{
		"stripe_customer_id": cust.ID,
	}); err != nil {
		return "", err
	}

	return cust.ID, nil
}
