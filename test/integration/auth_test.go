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

func TestAuth_RegisterGrantsTrialCredits(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("register_%d@test.com", time.Now().UnixNano())
	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name":     "New User",
		"email":    email,
		"password": "password123",
	})

	require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)

	var response struct {
		AccessToken string       `json:"access_token"`
		User        *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &response))
	assert.NotEmpty(t, response.AccessToken)
	assert.Equal(t, 10, response.User.Credits, "registration grants the trial credits")

	// The grant is a ledger entry, not a raw column write.
	helpers.AssertBalanceInvariant(t, tx, response.User.ID)

	var entry models.CreditLedgerEntry
	require.NoError(t, tx.First(&entry, "user_id = ?", response.User.ID).Error)
	assert.Equal(t, 10, entry.Delta)
	assert.Equal(t, "trial_grant", entry.Reason)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("dup_%d@test.com", time.Now().UnixNano())
	body := map[string]interface{}{
		"name":     "First",
		"email":    email,
		"password": "password123",
	}

	res, _ := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, res.StatusCode, bodyStr)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("wrongpass_%d@test.com", time.Now().UnixNano())
	helpers.CreateAndLoginUser(t, ts, tx, "User", email, "password123")

	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "not-the-password",
	})

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Invalid email or password")
}

func TestAuth_ProtectedRouteRequiresToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	res, _ := ts.SendRequest(t, tx, http.MethodGet, "/api/v1/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/users/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
