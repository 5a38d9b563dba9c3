package middleware

import (
	"crypto/subtle"
	"membership-api/internal/response"
	"membership-api/internal/services"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const emailContextKey = "member_email"

// SessionMiddleware resolves the signed-in member from the session cookie or
// a Bearer token. Requests without a valid session continue anonymously.
func SessionMiddleware(sessions *services.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		if token == "" {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			}
		}

		if token != "" {
			if email, err := sessions.Validate(token); err == nil {
				c.Set(emailContextKey, email)
			}
		}
		c.Next()
	}
}

// CurrentEmail returns the signed-in member's email, or "".
func CurrentEmail(c *gin.Context) string {
	return c.GetString(emailContextKey)
}

// RequireSession rejects anonymous requests
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentEmail(c) == "" {
			response.ErrorJSON(c, http.StatusUnauthorized, "Not logged in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminAuthMiddleware provides admin authentication middleware
func AdminAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			response.ErrorJSON(c, http.StatusServiceUnavailable, "Admin API is disabled")
			c.Abort()
			return
		}

		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing api_key")
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.ErrorJSON(c, http.StatusUnauthorized, "Invalid api_key")
			c.Abort()
			return
		}

		c.Set("request_time", time.Now())
		c.Next()
	}
}
