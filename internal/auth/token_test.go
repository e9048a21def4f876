package auth

import (
	"testing"
	"time"

	"medimind_backend/internal/config"
	"medimind_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	config.AppConfig = &config.Config{}
	config.AppConfig.JWT.Secret = "unit-test-secret"
	config.AppConfig.JWT.TTL = 1
}

func testUser() *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: "11111111-1111-1111-1111-111111111111"},
		Email:     "user@test.com",
		Role:      models.UserRoleUser,
	}
}

func testAdmin() *models.Admin {
	return &models.Admin{
		BaseModel: models.BaseModel{ID: "22222222-2222-2222-2222-222222222222"},
		Email:     "admin@test.com",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", claims.UserID)
	assert.Equal(t, "user@test.com", claims.Email)
	assert.Equal(t, models.UserRoleUser, claims.Role)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := GenerateAdminToken(testAdmin())
	require.NoError(t, err)

	claims, err := ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", claims.UserID)
	assert.Equal(t, models.UserRoleAdmin, claims.Role)
}

func TestTokenSubjectsDoNotCross(t *testing.T) {
	userToken, err := GenerateToken(testUser())
	require.NoError(t, err)
	adminToken, err := GenerateAdminToken(testAdmin())
	require.NoError(t, err)

	_, err = ParseAdminToken(userToken)
	assert.ErrorIs(t, err, ErrWrongSubject)

	_, err = ParseToken(adminToken)
	assert.ErrorIs(t, err, ErrWrongSubject)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongKey(t *testing.T) {
	claims := &Claims{
		UserID: "x",
		Type:   subjectUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = ParseToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	claims := &Claims{
		UserID: "x",
		Type:   subjectUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	require.NoError(t, err)

	_, err = ParseToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
