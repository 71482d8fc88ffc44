package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printready/proofdesk-backend/internal/service"
)

const userIDKey = "userID"

// bearerToken extracts the token from an Authorization header, returning ""
// when the header is absent or malformed.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func resolveUserID(authService service.AuthService, tokenString string) (string, error) {
	token, err := authService.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return authService.GetUserIDFromToken(token)
}

// AuthMiddleware rejects requests without a valid access token and puts the
// durable user ID on the context for handlers.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		userID, err := resolveUserID(authService, tokenString)
		if err != nil {
			log.Printf("[Auth] ⚠️ Rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user ID when a valid token is present and
// lets the request through either way.
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if userID, err := resolveUserID(authService, tokenString); err == nil {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// RequestLogger writes one line per request with status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		marker := "✅"
		switch {
		case status >= 500:
			marker = "❌"
		case status >= 400:
			marker = "⚠️"
		}
		log.Printf("%s [%s] %s %d - %v", marker, c.Request.Method, c.Request.URL.Path, status, time.Since(start))

		for _, e := range c.Errors {
			log.Printf("❌ [Error] %v", e.Err)
		}
	}
}

// GetUserID returns the authenticated user ID, or "" when unauthenticated.
func GetUserID(c *gin.Context) string {
	if userID, ok := c.Get(userIDKey); ok {
		return userID.(string)
	}
	return ""
}

// RequireUserID responds 401 and returns false when no user is on the
// context.
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return "", false
	}
	return userID, true
}
