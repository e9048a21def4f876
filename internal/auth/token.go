package auth

import (
	"errors"
	"time"

	"medimind_backend/internal/config"
	"medimind_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	subjectUser  = "user"
	subjectAdmin = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongSubject = errors.New("token subject mismatch")
)

// Claims carried by both user and admin tokens. Type distinguishes
// them so an end-user token can never pass the admin gate.
type Claims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	Type   string          `json:"type"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.GetConfig().JWT.Secret)
}

func ttl() time.Duration {
	return time.Duration(config.GetConfig().JWT.TTL) * time.Hour
}

// GenerateToken issues a Bearer token for an end user.
func GenerateToken(user *models.User) (string, error) {
	return sign(user.ID, user.Email, user.Role, subjectUser)
}

// GenerateAdminToken issues the cookie token for an admin.
func GenerateAdminToken(admin *models.Admin) (string, error) {
	return sign(admin.ID, admin.Email, models.UserRoleAdmin, subjectAdmin)
}

func sign(id, email string, role models.UserRole, tokenType string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: id,
		Email:  email,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ParseToken validates an end-user token.
func ParseToken(tokenStr string) (*Claims, error) {
	return parse(tokenStr, subjectUser)
}

// ParseAdminToken validates an admin cookie token.
func ParseAdminToken(tokenStr string) (*Claims, error) {
	return parse(tokenStr, subjectAdmin)
}

func parse(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != tokenType {
		return nil, ErrWrongSubject
	}
	return claims, nil
}
