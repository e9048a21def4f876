package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"medimind_backend/internal/models"
	"medimind_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionBody(notes string) map[string]interface{} {
	return map[string]interface{}{
		"notes":          notes,
		"selectedDoctor": map[string]interface{}{"id": 1, "specialist": "General Physician"},
	}
}

func TestLedger_ExhaustionReturns402(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("exhaust_%d@test.com", time.Now().UnixNano())
	token, user := helpers.CreateAndLoginUser(t, ts, tx, "Exhaust User", email, "password123")
	helpers.GrantCredits(t, tx, user.ID, 3)

	// Burn every credit.
	for i := 0; i < 3; i++ {
		res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/consultations", token, sessionBody("headache"))
		require.Equal(t, http.StatusCreated, res.StatusCode, bodyStr)
	}

	// The next one must be refused with the documented payload.
	res, bodyStr := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/consultations", token, sessionBody("headache again"))
	require.Equal(t, http.StatusPaymentRequired, res.StatusCode, bodyStr)

	var errResp struct {
		Error struct {
			Details struct {
				CreditsNeeded    int `json:"creditsNeeded"`
				CreditsAvailable int `json:"creditsAvailable"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &errResp))
	assert.Equal(t, 1, errResp.Error.Details.CreditsNeeded)
	assert.Equal(t, 0, errResp.Error.Details.CreditsAvailable)

	// A refused debit writes nothing.
	var count int64
	require.NoError(t, tx.Model(&models.ConsultationSession{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 3, count)
	helpers.AssertBalanceInvariant(t, tx, user.ID)
}

func TestLedger_BalanceEqualsEntrySum(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	email := fmt.Sprintf("sum_%d@test.com", time.Now().UnixNano())
	token, user := helpers.CreateAndLoginUser(t, ts, tx, "Sum User", email, "password123")
	helpers.GrantCredits(t, tx, user.ID, 5)

	for i := 0; i < 2; i++ {
		res, _ := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/consultations", token, sessionBody("checkup"))
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	helpers.AssertBalanceInvariant(t, tx, user.ID)
	assert.Equal(t, 3, helpers.LedgerSum(t, tx, user.ID))

	// The credits endpoint reports the ledger-derived balance.
	res, bodyStr := ts.SendRequest(t, tx, http.MethodGet, "/api/v1/users/credits", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var creditsResp struct {
		Balance int `json:"balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &creditsResp))
	assert.Equal(t, 3, creditsResp.Balance)
}

// TestLedger_ConcurrentDebits hammers one balance from many
// goroutines. The row lock serializes them: no overdraft, and the
// balance still equals the ledger sum. Runs against the pool, not a
// test transaction, so it cleans up after itself.
func TestLedger_ConcurrentDebits(t *testing.T) {
	ts := GetTestServer(t)

	email := fmt.Sprintf("concurrent_%d@test.com", time.Now().UnixNano())
	token, user := helpers.CreateAndLoginUser(t, ts, ts.DB, "Concurrent User", email, "password123")
	defer func() {
		ts.DB.Unscoped().Where("user_id = ?", user.ID).Delete(&models.ConsultationSession{})
		ts.DB.Unscoped().Where("id = ?", user.ID).Delete(&models.User{})
	}()

	helpers.GrantCredits(t, ts.DB, user.ID, 5)

	const attempts = 12
	var wg sync.WaitGroup
	statuses := make([]int, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, _ := ts.SendRequest(t, nil, http.MethodPost, "/api/v1/consultations", token, sessionBody("race"))
			statuses[i] = res.StatusCode
		}(i)
	}
	wg.Wait()

	created, refused := 0, 0
	for _, status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusPaymentRequired:
			refused++
		default:
			t.Fatalf("unexpected status %d", status)
		}
	}

	assert.Equal(t, 5, created, "exactly the granted credits can be spent")
	assert.Equal(t, attempts-5, refused)

	var balance models.User
	require.NoError(t, ts.DB.First(&balance, "id = ?", user.ID).Error)
	assert.Equal(t, 0, balance.Credits, "no overdraft")
	helpers.AssertBalanceInvariant(t, ts.DB, user.ID)
}
