package middleware

import (
	"net/http"

	"github.com/wayakart27/ecommerce-sub002/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminRequired lets through only callers whose token carries the admin role.
// It must run after AuthRequired. Denied attempts are logged with the caller.
func AdminRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetString("role"); role != domain.RoleAdmin {
			log.Warn("admin access denied",
				zap.Uint("user_id", GetUserID(c)),
				zap.String("role", role),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
