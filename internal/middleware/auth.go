// Package middleware provides Gin HTTP middleware for authentication,
// rate limiting, security headers, request IDs, and metrics.
//
// Middleware ordering matters and is enforced in router.go. Security headers
// sit on the global chain so they appear on every routed response. On the
// public auth endpoints rate limiting runs before auth to block brute-force
// attacks before any DB work; on the authenticated QR endpoints auth runs
// first so the limiter can key on the user id instead of the client IP. Auth
// populates the user identity; handlers read it from the Gin context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/qr-dashboard/qr-dashboard/internal/auth"
	"github.com/qr-dashboard/qr-dashboard/internal/db/repositories"
)

// AuthMiddleware validates the JWT bearer token and loads the authenticated
// user into the Gin context under "user" and "user_id".
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing authorization header",
			})
			return
		}

		// Check if it starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header must start with 'Bearer '",
			})
			return
		}

		// Extract token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid credentials",
			})
			return
		}

		// Token is valid; confirm the user still exists. A valid token for a
		// deleted account must not grant access.
		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "Failed to load user",
			})
			return
		}

		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "User not found",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)

		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the Gin context.
// Returns "" when the request is unauthenticated.
func GetUserID(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
