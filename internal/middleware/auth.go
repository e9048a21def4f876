package middleware

import (
	"net/http"
	"strings"

	"medimind_backend/internal/auth"
	"medimind_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// AdminCookieName is the cookie carrying the admin session token.
const AdminCookieName = "admin_token"

// AuthMiddleware validates the Bearer JWT for end users.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// AdminAuthMiddleware validates the admin session cookie. Every
// /admin route passes through here; unauthenticated calls get 401
// before any handler logic runs.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(AdminCookieName)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin authentication required"})
			return
		}

		claims, err := auth.ParseAdminToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin authentication required"})
			return
		}

		c.Set("adminID", claims.UserID)
		c.Set("adminEmail", claims.Email)
		c.Next()
	}
}
