package middleware

import (
	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader = "X-User-ID"
	UserKey      = "userID"
)

// AuthMiddleware trusts the X-User-ID header set by the gateway in front of
// the service. Requests without it are rejected with 401.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(apperrors.ErrUnauthorized.Code, apperrors.ErrUnauthorized)
			return
		}
		c.Set(UserKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(UserKey)
}
