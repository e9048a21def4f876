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
)

func TestAdmin_RoutesRequireCookie(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	for _, path := range []string{
		"/api/v1/admin/dashboard",
		"/api/v1/admin/analytics",
		"/api/v1/admin/users",
		"/api/v1/admin/plans",
		"/api/v1/admin/settings",
	} {
		res, _ := ts.SendRequest(t, tx, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
	}

	// A user Bearer token is not an admin session.
	email := fmt.Sprintf("notadmin_%d@test.com", time.Now().UnixNano())
	token, _ := helpers.CreateAndLoginUser(t, ts, tx, "Not Admin", email, "password123")
	res, _ := ts.SendRequest(t, tx, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdmin_LoginSetsCookie(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("admin_%d@test.com", time.Now().UnixNano())
	helpers.CreateAdmin(t, tx, email, "adminpass123")

	cookie := helpers.LoginAdmin(t, ts, tx, email, "adminpass123")
	assert.True(t, cookie.HttpOnly, "admin cookie must be HttpOnly")

	res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodGet, "/api/v1/admin/auth/me", cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)
	assert.Contains(t, bodyStr, email)

	// Wrong password leaves no session.
	res, _ = ts.SendRequest(t, tx, http.MethodPost, "/api/v1/admin/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdmin_PlanCRUD(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("plancrud_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, email, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodPost, "/api/v1/admin/plans", cookie, map[string]interface{}{
		"name":          "Premium",
		"price":         29.99,
		"currency":      "USD",
		"interval":      "month",
		"stripePriceId": fmt.Sprintf("price_prem_%d", time.Now().UnixNano()),
		"credits":       100,
		"features":      []string{"priority support"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var plan models.Plan
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &plan))
	require.NotEmpty(t, plan.ID)
	assert.Equal(t, 100, plan.Credits)

	newPrice := 39.99
	res, bodyStr = ts.SendAdminRequest(t, tx, http.MethodPut, "/api/v1/admin/plans/"+plan.ID, cookie, map[string]interface{}{
		"price":  newPrice,
		"active": false,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var updated models.Plan
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &updated))
	assert.InDelta(t, newPrice, updated.Price, 0.001)
	assert.False(t, updated.Active)

	res, _ = ts.SendAdminRequest(t, tx, http.MethodDelete, "/api/v1/admin/plans/"+plan.ID, cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = ts.SendAdminRequest(t, tx, http.MethodPut, "/api/v1/admin/plans/"+plan.ID, cookie, map[string]interface{}{
		"price": 1.0,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAdmin_MultiplePlansWithoutPriceBinding(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("unbound_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, email, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	// Plans start without a Stripe price; the binding comes later.
	// Several unbound plans must be able to coexist.
	for _, name := range []string{"Draft Basic", "Draft Premium"} {
		res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodPost, "/api/v1/admin/plans", cookie, map[string]interface{}{
			"name":    name,
			"price":   9.99,
			"credits": 50,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
	}

	var count int64
	require.NoError(t, tx.Model(&models.Plan{}).Where("stripe_price_id IS NULL").Count(&count).Error)
	assert.GreaterOrEqual(t, count, int64(2))
}

func TestAdmin_UpdateUserCreditsGoesThroughLedger(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminEmail := fmt.Sprintf("creditadmin_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, adminEmail, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	userEmail := fmt.Sprintf("target_%d@test.com", time.Now().UnixNano())
	_, user := helpers.CreateAndLoginUser(t, ts, tx, "Target", userEmail, "password123")
	helpers.GrantCredits(t, tx, user.ID, 5)

	res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodPut, "/api/v1/admin/users", cookie, map[string]interface{}{
		"userId":  user.ID,
		"credits": 20,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var updated models.User
	require.NoError(t, tx.First(&updated, "id = ?", user.ID).Error)
	assert.Equal(t, 20, updated.Credits)
	helpers.AssertBalanceInvariant(t, tx, user.ID)

	var entry models.CreditLedgerEntry
	require.NoError(t, tx.Where("user_id = ? AND reason = ?", user.ID, "admin_adjustment").First(&entry).Error)
	assert.Equal(t, 15, entry.Delta)
}

func TestAdmin_DeleteUserRemovesDependents(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminEmail := fmt.Sprintf("deladmin_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, adminEmail, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	userEmail := fmt.Sprintf("doomed_%d@test.com", time.Now().UnixNano())
	token, user := helpers.CreateAndLoginUser(t, ts, tx, "Doomed", userEmail, "password123")
	helpers.GrantCredits(t, tx, user.ID, 2)
	res, _ := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/consultations", token, map[string]interface{}{
		"notes":          "recurring chest tightness",
		"selectedDoctor": map[string]interface{}{"id": 1, "specialist": "General Physician"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, _ = ts.SendAdminRequest(t, tx, http.MethodDelete, "/api/v1/admin/users?userId="+user.ID, cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var count int64
	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, tx.Model(&models.CreditLedgerEntry{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, tx.Model(&models.ConsultationSession{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	res, _ = ts.SendAdminRequest(t, tx, http.MethodDelete, "/api/v1/admin/users?userId="+user.ID, cookie, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAdmin_SettingsEncryptedValueMasked(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("settings_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, email, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	key := fmt.Sprintf("llm_api_key_%d", time.Now().UnixNano())
	res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodPost, "/api/v1/admin/settings", cookie, map[string]interface{}{
		"settingKey":   key,
		"settingValue": "sk-secret-value",
		"encrypted":    true,
		"description":  "LLM provider key",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
	assert.NotContains(t, bodyStr, "sk-secret-value", "secret must not echo back")
	assert.Contains(t, bodyStr, "********")

	// The stored value is ciphertext, not the secret.
	var stored models.AdminSetting
	require.NoError(t, tx.First(&stored, "setting_key = ?", key).Error)
	assert.True(t, stored.Encrypted)
	assert.NotEqual(t, "sk-secret-value", stored.SettingValue)
	assert.NotContains(t, stored.SettingValue, "sk-secret-value")

	res, bodyStr = ts.SendAdminRequest(t, tx, http.MethodGet, "/api/v1/admin/settings", cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, bodyStr, "sk-secret-value")
}

func TestAdmin_DashboardAndUserList(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("dash_%d@test.com", time.Now().UnixNano())
	admin := helpers.CreateAdmin(t, tx, email, "adminpass123")
	cookie := helpers.AdminCookieFor(t, admin)

	userEmail := fmt.Sprintf("dashuser_%d@test.com", time.Now().UnixNano())
	helpers.CreateAndLoginUser(t, ts, tx, "Dash User", userEmail, "password123")

	res, bodyStr := ts.SendAdminRequest(t, tx, http.MethodGet, "/api/v1/admin/dashboard", cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, bodyStr)

	var dash struct {
		Stats struct {
			TotalUsers int64 `json:"totalUsers"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &dash))
	assert.GreaterOrEqual(t, dash.Stats.TotalUsers, int64(1))

	res, bodyStr = ts.SendAdminRequest(t, tx, http.MethodGet, "/api/v1/admin/users", cookie, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, userEmail)
}
