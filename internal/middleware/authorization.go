package middleware

import (
	"net/http"

	"QH_quranhabits/internal/metrics"
	"QH_quranhabits/internal/model"
	"QH_quranhabits/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireUser rejects requests that Session did not attach a user to.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userData, exists := c.Get(UserKey)
		if !exists {
			metrics.AuthRejections.WithLabelValues("missing_session").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		if _, ok := userData.(*model.User); !ok {
			logger.Logger().Error("invalid type assertion for user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Next()
	}
}
