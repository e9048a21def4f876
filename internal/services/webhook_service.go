package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"medimind_backend/internal/config"
	"medimind_backend/internal/email"
	"medimind_backend/internal/logger"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"
)

// WebhookService reconciles Stripe events into local billing state
// and the credit ledger. Every handler is idempotent: redelivered
// events must not double-grant or double-record.
type WebhookService interface {
	VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error)
	HandleEvent(ctx context.Context, db *gorm.DB, event stripe.Event) error
}

type webhookService struct {
	userRepo   *repositories.UserRepository
	planRepo   *repositories.PlanRepository
	subRepo    *repositories.SubscriptionRepository
	txRepo     *repositories.TransactionRepository
	ledger     LedgerService
	mailSender email.Provider
}

func NewWebhookService(
	userRepo *repositories.UserRepository,
	planRepo *repositories.PlanRepository,
	subRepo *repositories.SubscriptionRepository,
	txRepo *repositories.TransactionRepository,
	ledger LedgerService,
	mailSender email.Provider,
) WebhookService {
	return &webhookService{
		userRepo:   userRepo,
		planRepo:   planRepo,
		subRepo:    subRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		mailSender: mailSender,
	}
}

func (s *webhookService) VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, config.GetConfig().Stripe.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, apperrors.NewBadRequestError("Invalid webhook signature")
	}
	return event, nil
}

func (s *webhookService) HandleEvent(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, db, event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, db, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, db, event)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaid(ctx, db, event)
	case "invoice.payment_failed":
		return s.handleInvoiceFailed(ctx, db, event)
	default:
		// Unknown events are acknowledged so Stripe stops retrying.
		logger.CtxDebug(ctx, "ignoring webhook event", "type", string(event.Type))
		return nil
	}
}

// handleCheckoutCompleted activates the purchased plan and grants its
// first credit batch. The grant is keyed by the event id, so a
// redelivered event hits the ledger's unique index and becomes a
// no-op.
func (s *webhookService) handleCheckoutCompleted(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return apperrors.NewBadRequestError("Malformed checkout session payload")
	}

	if sess.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	userID := sess.Metadata["user_id"]
	planID := sess.Metadata["plan_id"]
	if planID == "" {
		logger.CtxWarn(ctx, "checkout session without plan metadata", "session_id", sess.ID)
		return nil
	}

	plan, err := s.planRepo.FindByID(db, planID)
	if err != nil {
		return err
	}

	var user *models.User
	if userID != "" {
		user, err = s.userRepo.FindByID(db, userID)
	} else if sess.Customer != nil {
		// Sessions created outside the API lack our metadata; the
		// customer id still identifies the buyer.
		user, err = s.userRepo.FindByStripeCustomerID(db, sess.Customer.ID)
	} else {
		logger.CtxWarn(ctx, "checkout session without user reference", "session_id", sess.ID)
		return nil
	}
	if err != nil {
		return err
	}
	userID = user.ID

	now := time.Now()
	sub := &models.Subscription{
		UserID:             userID,
		PlanID:             planID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   addInterval(now, plan.Interval, plan.IntervalCount),
	}
	if sess.Subscription != nil {
		sub.StripeSubscriptionID = &sess.Subscription.ID
	}

	eventID := event.ID
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.Credit(tx, userID, plan.Credits, "subscription_purchase", &eventID); err != nil {
			return err
		}

		if err := s.subRepo.Create(tx, sub); err != nil {
			return err
		}

		if _, err := s.userRepo.UpdateFields(tx, userID, map[string]interface{}{
			"subscription_status":  models.UserSubscriptionActive,
			"subscription_plan_id": planID,
		}); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:         userID,
			SubscriptionID: &sub.ID,
			Amount:         float64(sess.AmountTotal) / 100,
			Currency:       string(sess.Currency),
			Status:         models.TransactionStatusCompleted,
			Description:    "Subscription purchase: " + plan.Name,
			CreditsAwarded: plan.Credits,
		}
		return s.txRepo.Create(tx, record)
	})
	if err != nil {
		if isDuplicateEvent(err) {
			logger.CtxInfo(ctx, "duplicate checkout event ignored", "event_id", event.ID)
			return nil
		}
		return err
	}

	subject, body := email.SubscriptionActiveBody(user.Name, plan.Name, plan.Credits)
	go func() {
		if err := s.mailSender.Send(user.Email, subject, body); err != nil {
			logger.GetLogger().Warn("failed to send subscription email", "error", err)
		}
	}()

	return nil
}

func (s *webhookService) handleSubscriptionUpdated(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return apperrors.NewBadRequestError("Malformed subscription payload")
	}

	sub, err := s.subRepo.FindByStripeID(db, stripeSub.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			// Update arrived before checkout.session.completed;
			// the checkout handler will create the record.
			logger.CtxInfo(ctx, "subscription update for unknown subscription", "stripe_id", stripeSub.ID)
			return nil
		}
		return err
	}

	sub.Status = mapSubscriptionStatus(stripeSub.Status)
	if stripeSub.CurrentPeriodStart > 0 {
		sub.CurrentPeriodStart = time.Unix(stripeSub.CurrentPeriodStart, 0)
	}
	if stripeSub.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(stripeSub.CurrentPeriodEnd, 0)
	}

	// A plan switch from the billing portal shows up here as a new
	// price on the subscription items.
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 && stripeSub.Items.Data[0].Price != nil {
		priceID := stripeSub.Items.Data[0].Price.ID
		if plan, err := s.planRepo.FindByStripePriceID(db, priceID); err == nil && plan.ID != sub.PlanID {
			sub.PlanID = plan.ID
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := s.subRepo.Update(tx, sub); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"subscription_status": userStatusFor(sub.Status),
		}
		if sub.Status == models.SubscriptionStatusCanceled {
			fields["subscription_plan_id"] = nil
		} else {
			fields["subscription_plan_id"] = sub.PlanID
		}
		_, err := s.userRepo.UpdateFields(tx, sub.UserID, fields)
		return err
	})
}

func (s *webhookService) handleSubscriptionDeleted(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return apperrors.NewBadRequestError("Malformed subscription payload")
	}

	sub, err := s.subRepo.FindByStripeID(db, stripeSub.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCanceled

	return db.Transaction(func(tx *gorm.DB) error {
		if err := s.subRepo.Update(tx, sub); err != nil {
			return err
		}
		_, err := s.userRepo.UpdateFields(tx, sub.UserID, map[string]interface{}{
			"subscription_status":  models.UserSubscriptionFree,
			"subscription_plan_id": nil,
		})
		return err
	})
}

// handleInvoicePaid grants the renewal batch. The first invoice of a
// subscription is skipped because checkout.session.completed already
// granted it; the grant here is keyed by invoice id, not event id, so
// a replayed delivery of the same invoice stays a no-op.
func (s *webhookService) handleInvoicePaid(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return apperrors.NewBadRequestError("Malformed invoice payload")
	}

	if invoice.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
		return nil
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.subRepo.FindByStripeID(db, invoice.Subscription.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			logger.CtxWarn(ctx, "paid invoice for unknown subscription", "stripe_id", invoice.Subscription.ID)
			return nil
		}
		return err
	}

	plan, err := s.planRepo.FindByID(db, sub.PlanID)
	if err != nil {
		return err
	}

	invoiceID := invoice.ID
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ledger.Credit(tx, sub.UserID, plan.Credits, "subscription_renewal", &invoiceID); err != nil {
			return err
		}

		sub.Status = models.SubscriptionStatusActive
		if err := s.subRepo.Update(tx, sub); err != nil {
			return err
		}

		if _, err := s.userRepo.UpdateFields(tx, sub.UserID, map[string]interface{}{
			"subscription_status": models.UserSubscriptionActive,
		}); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:         sub.UserID,
			SubscriptionID: &sub.ID,
			Amount:         float64(invoice.AmountPaid) / 100,
			Currency:       string(invoice.Currency),
			Status:         models.TransactionStatusCompleted,
			Description:    "Subscription renewal: " + plan.Name,
			CreditsAwarded: plan.Credits,
		}
		if invoice.PaymentIntent != nil {
			record.StripePaymentIntentID = invoice.PaymentIntent.ID
		}
		return s.txRepo.Create(tx, record)
	})
	if err != nil {
		if isDuplicateEvent(err) {
			logger.CtxInfo(ctx, "duplicate invoice ignored", "invoice_id", invoice.ID)
			return nil
		}
		return err
	}

	return nil
}

// handleInvoiceFailed records the failure and flags the subscription.
// The ledger is never touched: a failed renewal grants nothing and
// revokes nothing.
func (s *webhookService) handleInvoiceFailed(ctx context.Context, db *gorm.DB, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return apperrors.NewBadRequestError("Malformed invoice payload")
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.subRepo.FindByStripeID(db, invoice.Subscription.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		sub.Status = models.SubscriptionStatusPastDue
		if err := s.subRepo.Update(tx, sub); err != nil {
			return err
		}

		if _, err := s.userRepo.UpdateFields(tx, sub.UserID, map[string]interface{}{
			"subscription_status": models.UserSubscriptionInactive,
		}); err != nil {
			return err
		}

		record := &models.Transaction{
			UserID:         sub.UserID,
			SubscriptionID: &sub.ID,
			Amount:         float64(invoice.AmountDue) / 100,
			Currency:       string(invoice.Currency),
			Status:         models.TransactionStatusFailed,
			Description:    "Subscription payment failed",
		}
		return s.txRepo.Create(tx, record)
	})
	if err != nil {
		return err
	}

	if user, err := s.userRepo.FindByID(db, sub.UserID); err == nil {
		subject, body := email.PaymentFailedBody(user.Name)
		go func() {
			if err := s.mailSender.Send(user.Email, subject, body); err != nil {
				logger.GetLogger().Warn("failed to send payment-failed email", "error", err)
			}
		}()
	}

	return nil
}

func mapSubscriptionStatus(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusPastDue
	}
}

func userStatusFor(status models.SubscriptionStatus) models.UserSubscriptionStatus {
	switch status {
	case models.SubscriptionStatusActive:
		return models.UserSubscriptionActive
	case models.SubscriptionStatusCanceled:
		return models.UserSubscriptionFree
	default:
		return models.UserSubscriptionInactive
	}
}

func addInterval(t time.Time, interval string, count int) time.Time {
	if count <= 0 {
		count = 1
	}
	switch interval {
	case "year":
		return t.AddDate(count, 0, 0)
	default:
		return t.AddDate(0, count, 0)
	}
}

func isDuplicateEvent(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == apperrors.CodeDuplicateEvent
	}
	return errors.Is(err, repositories.ErrDuplicateSourceEvent)
}
