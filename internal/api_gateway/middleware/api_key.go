package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match key.
// An empty key disables the check.
func APIKey(logger *slog.Logger, key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}
	expected := []byte(key)

	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(APIKeyHeader))
		if subtle.ConstantTimeCompare(provided, expected) == 1 {
			c.Next()
			return
		}

		logger.Warn("Rejected request with invalid API key",
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"header_present", len(provided) > 0,
		)

		body := gin.H{
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or missing API key",
			},
		}
		if correlationID := GetCorrelationID(c); correlationID != "" {
			body["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, body)
	}
}
