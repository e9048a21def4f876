package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"medimind_backend/internal/auth"
	"medimind_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser inserts a user in the given transaction, hashing the
// password if it is still raw.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) error {
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		user.PasswordHash = string(hashed)
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.SubscriptionStatus == "" {
		user.SubscriptionStatus = models.UserSubscriptionFree
	}
	return db.Create(user).Error
}

// CreateAndLoginUser creates a user and logs in through the API.
func CreateAndLoginUser(t *testing.T, ts *TestServer, tx *gorm.DB, name, email, password string) (string, *models.User) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password,
	}
	require.NoError(t, CreateUser(t, tx, user))

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, "Login should succeed. Response: "+bodyStr)

	var loginResponse struct {
		Token string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &loginResponse))
	require.NotEmpty(t, loginResponse.Token)

	return loginResponse.Token, user
}

// GrantCredits appends a ledger entry and syncs the balance column,
// mirroring what the ledger service does in one transaction.
func GrantCredits(t *testing.T, tx *gorm.DB, userID string, amount int) {
	var user models.User
	require.NoError(t, tx.First(&user, "id = ?", userID).Error)

	entry := models.CreditLedgerEntry{
		UserID:       userID,
		Delta:        amount,
		Reason:       "test_grant",
		BalanceAfter: user.Credits + amount,
	}
	require.NoError(t, tx.Create(&entry).Error)
	require.NoError(t, tx.Model(&models.User{}).Where("id = ?", userID).
		Update("credits", entry.BalanceAfter).Error)
}

// CreateAdmin inserts an admin account with a raw password.
func CreateAdmin(t *testing.T, tx *gorm.DB, email, password string) *models.Admin {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	admin := &models.Admin{
		Name:         "Test Admin",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         "admin",
		Active:       true,
	}
	require.NoError(t, tx.Create(admin).Error)
	return admin
}

// LoginAdmin logs in through the admin API and returns the session
// cookie.
func LoginAdmin(t *testing.T, ts *TestServer, tx *gorm.DB, email, password string) *http.Cookie {
	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/admin/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Admin login should succeed. Response: "+bodyStr)

	for _, cookie := range res.Cookies() {
		if cookie.Name == "admin_token" {
			return cookie
		}
	}
	t.Fatal("Admin login response did not set admin_token cookie")
	return nil
}

// AdminCookieFor mints an admin token directly, for tests that do not
// exercise the login endpoint.
func AdminCookieFor(t *testing.T, admin *models.Admin) *http.Cookie {
	token, err := auth.GenerateAdminToken(admin)
	require.NoError(t, err)
	return &http.Cookie{Name: "admin_token", Value: token}
}

// CreatePlan inserts a plan row.
func CreatePlan(t *testing.T, tx *gorm.DB, name string, price float64, credits int) *models.Plan {
	priceID := fmt.Sprintf("price_%s_%d", strings.ToLower(strings.ReplaceAll(name, " ", "_")), time.Now().UnixNano())
	plan := &models.Plan{
		Name:          name,
		Price:         price,
		Currency:      "USD",
		Interval:      "month",
		IntervalCount: 1,
		StripePriceID: &priceID,
		Credits:       credits,
		Active:        true,
	}
	require.NoError(t, tx.Create(plan).Error)
	return plan
}

// StripeSignature builds a valid Stripe-Signature header for the
// payload, the same scheme webhook.ConstructEvent verifies.
func StripeSignature(payload []byte, secret string) string {
	timestamp := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// LedgerSum recomputes the balance from the ledger. Tests assert it
// always equals users.credits.
func LedgerSum(t *testing.T, tx *gorm.DB, userID string) int {
	var total *int
	require.NoError(t, tx.Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("SUM(delta)").Scan(&total).Error)
	if total == nil {
		return 0
	}
	return *total
}

// AssertBalanceInvariant checks users.credits == SUM(ledger.delta).
func AssertBalanceInvariant(t *testing.T, tx *gorm.DB, userID string) {
	var user models.User
	require.NoError(t, tx.First(&user, "id = ?", userID).Error)
	assert.Equal(t, LedgerSum(t, tx, userID), user.Credits,
		"users.credits must equal the ledger sum")
}
