package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"medimind_backend/internal/models"
	"medimind_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const webhookPath = "/api/v1/stripe/webhook"

func sendWebhook(t *testing.T, ts *helpers.TestServer, tx *gorm.DB, payload []byte) (*http.Response, string) {
	return ts.SendRawRequest(t, tx, http.MethodPost, webhookPath, payload, map[string]string{
		"Content-Type":     "application/json",
		"Stripe-Signature": helpers.StripeSignature(payload, testWebhookSecret),
	})
}

func checkoutCompletedEvent(eventID, userID, planID, stripeSubID string) []byte {
	payload := fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2024-06-20",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_123",
				"object": "checkout.session",
				"mode": "subscription",
				"subscription": %q,
				"amount_total": 1999,
				"currency": "usd",
				"metadata": {"user_id": %q, "plan_id": %q}
			}
		}
	}`, eventID, stripeSubID, userID, planID)
	return []byte(payload)
}

func invoiceEvent(eventType, eventID, invoiceID, stripeSubID, billingReason string) []byte {
	payload := fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2024-06-20",
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "invoice",
				"billing_reason": %q,
				"subscription": %q,
				"amount_paid": 1999,
				"amount_due": 1999,
				"currency": "usd"
			}
		}
	}`, eventID, eventType, invoiceID, billingReason, stripeSubID)
	return []byte(payload)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	payload := checkoutCompletedEvent("evt_bad", "user", "plan", "sub_x")

	res, _ := ts.SendRawRequest(t, tx, http.MethodPost, webhookPath, payload, map[string]string{
		"Content-Type":     "application/json",
		"Stripe-Signature": "t=123,v1=deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = ts.SendRawRequest(t, tx, http.MethodPost, webhookPath, payload, map[string]string{
		"Content-Type": "application/json",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "missing signature header is rejected")
}

func TestWebhook_CheckoutGrantsCreditsOnce(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("checkout_%d@test.com", time.Now().UnixNano())
	_, user := helpers.CreateAndLoginUser(t, ts, tx, "Buyer", email, "password123")
	plan := helpers.CreatePlan(t, tx, "Pro", 19.99, 50)

	eventID := fmt.Sprintf("evt_%d", time.Now().UnixNano())
	stripeSubID := fmt.Sprintf("sub_%d", time.Now().UnixNano())
	payload := checkoutCompletedEvent(eventID, user.ID, plan.ID, stripeSubID)

	res, bodyStr := sendWebhook(t, ts, tx, payload)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var updated models.User
	require.NoError(t, tx.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, 50, updated.Credits)
	assert.Equal(t, models.UserSubscriptionActive, updated.SubscriptionStatus)
	require.NotNil(t, updated.SubscriptionPlanID)
	assert.Equal(t, plan.ID, *updated.SubscriptionPlanID)

	var sub models.Subscription
	require.NoError(t, tx.First(&sub, "stripe_subscription_id = ?", stripeSubID).Error)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	var txn models.Transaction
	require.NoError(t, tx.First(&txn, "user_id = ?", user.ID).Error)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
	assert.InDelta(t, 19.99, txn.Amount, 0.001)

	// Redelivery of the same event is acknowledged but grants
	// nothing.
	res, _ = sendWebhook(t, ts, tx, payload)
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, tx.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, 50, updated.Credits, "duplicate event must not double-grant")
	helpers.AssertBalanceInvariant(t, tx, user.ID)
}

func TestWebhook_RenewalInvoiceGrantsByInvoiceID(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("renewal_%d@test.com", time.Now().UnixNano())
	_, user := helpers.CreateAndLoginUser(t, ts, tx, "Renewer", email, "password123")
	plan := helpers.CreatePlan(t, tx, "Pro Renew", 19.99, 50)

	stripeSubID := fmt.Sprintf("sub_%d", time.Now().UnixNano())
	res, _ := sendWebhook(t, ts, tx, checkoutCompletedEvent(
		fmt.Sprintf("evt_co_%d", time.Now().UnixNano()), user.ID, plan.ID, stripeSubID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The first invoice of the subscription is skipped, the checkout
	// event already granted that batch.
	res, _ = sendWebhook(t, ts, tx, invoiceEvent(
		"invoice.payment_succeeded",
		fmt.Sprintf("evt_in0_%d", time.Now().UnixNano()),
		fmt.Sprintf("in_first_%d", time.Now().UnixNano()),
		stripeSubID, "subscription_create"))
	require.Equal(t, http.StatusOK, res.StatusCode)

	var afterFirst models.User
	require.NoError(t, tx.First(&afterFirst, "id = ?", user.ID).Error)
	assert.Equal(t, 50, afterFirst.Credits, "subscription_create invoice must not double-grant")

	// A cycle invoice grants the renewal batch, keyed by invoice id.
	invoiceID := fmt.Sprintf("in_cycle_%d", time.Now().UnixNano())
	renewal := invoiceEvent(
		"invoice.payment_succeeded",
		fmt.Sprintf("evt_in1_%d", time.Now().UnixNano()),
		invoiceID, stripeSubID, "subscription_cycle")

	res, _ = sendWebhook(t, ts, tx, renewal)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var afterRenewal models.User
	require.NoError(t, tx.First(&afterRenewal, "id = ?", user.ID).Error)
	assert.Equal(t, 100, afterRenewal.Credits)

	// The same invoice under a different event id stays a no-op.
	replay := invoiceEvent(
		"invoice.payment_succeeded",
		fmt.Sprintf("evt_in2_%d", time.Now().UnixNano()),
		invoiceID, stripeSubID, "subscription_cycle")

	res, _ = sendWebhook(t, ts, tx, replay)
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, tx.First(&afterRenewal, "id = ?", user.ID).Error)
	assert.Equal(t, 100, afterRenewal.Credits, "replayed invoice must not grant again")
	helpers.AssertBalanceInvariant(t, tx, user.ID)
}

func TestWebhook_PaymentFailedFlagsSubscription(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("failed_%d@test.com", time.Now().UnixNano())
	_, user := helpers.CreateAndLoginUser(t, ts, tx, "Lapsed", email, "password123")
	plan := helpers.CreatePlan(t, tx, "Pro Lapse", 19.99, 50)

	stripeSubID := fmt.Sprintf("sub_%d", time.Now().UnixNano())
	res, _ := sendWebhook(t, ts, tx, checkoutCompletedEvent(
		fmt.Sprintf("evt_co_%d", time.Now().UnixNano()), user.ID, plan.ID, stripeSubID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = sendWebhook(t, ts, tx, invoiceEvent(
		"invoice.payment_failed",
		fmt.Sprintf("evt_pf_%d", time.Now().UnixNano()),
		fmt.Sprintf("in_pf_%d", time.Now().UnixNano()),
		stripeSubID, "subscription_cycle"))
	require.Equal(t, http.StatusOK, res.StatusCode)

	var sub models.Subscription
	require.NoError(t, tx.First(&sub, "stripe_subscription_id = ?", stripeSubID).Error)
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)

	var updated models.User
	require.NoError(t, tx.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, models.UserSubscriptionInactive, updated.SubscriptionStatus)
	assert.Equal(t, 50, updated.Credits, "a failed payment never touches the ledger")

	var failedTxn models.Transaction
	require.NoError(t, tx.First(&failedTxn, "user_id = ? AND status = ?", user.ID, models.TransactionStatusFailed).Error)
	assert.Equal(t, "Subscription payment failed", failedTxn.Description)
	helpers.AssertBalanceInvariant(t, tx, user.ID)
}

func TestWebhook_SubscriptionDeletedDowngradesUser(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("deleted_%d@test.com", time.Now().UnixNano())
	_, user := helpers.CreateAndLoginUser(t, ts, tx, "Churner", email, "password123")
	plan := helpers.CreatePlan(t, tx, "Pro Churn", 19.99, 50)

	stripeSubID := fmt.Sprintf("sub_%d", time.Now().UnixNano())
	res, _ := sendWebhook(t, ts, tx, checkoutCompletedEvent(
		fmt.Sprintf("evt_co_%d", time.Now().UnixNano()), user.ID, plan.ID, stripeSubID))
	require.Equal(t, http.StatusOK, res.StatusCode)

	deleted := []byte(fmt.Sprintf(`{
		"id": "evt_del_%d",
		"object": "event",
		"api_version": "2024-06-20",
		"type": "customer.subscription.deleted",
		"data": {
			"object": {
				"id": %q,
				"object": "subscription",
				"status": "canceled"
			}
		}
	}`, time.Now().UnixNano(), stripeSubID))

	res, _ = sendWebhook(t, ts, tx, deleted)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var sub models.Subscription
	require.NoError(t, tx.First(&sub, "stripe_subscription_id = ?", stripeSubID).Error)
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)

	var updated models.User
	require.NoError(t, tx.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, models.UserSubscriptionFree, updated.SubscriptionStatus)
	assert.Nil(t, updated.SubscriptionPlanID)
	assert.Equal(t, 50, updated.Credits, "already granted credits survive cancellation")
}

func TestWebhook_UnknownEventIsAcked(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	payload := []byte(`{
		"id": "evt_unknown",
		"object": "event",
		"api_version": "2024-06-20",
		"type": "customer.created",
		"data": {"object": {"id": "cus_123", "object": "customer"}}
	}`)

	res, bodyStr := sendWebhook(t, ts, tx, payload)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &resp))
	assert.True(t, resp["received"])
}
