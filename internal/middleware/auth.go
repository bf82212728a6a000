package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth validates the X-API-Key header against the configured key.
// An empty configured key disables auth, the default for single-user
// local deployments.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		// Constant-time compare to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
