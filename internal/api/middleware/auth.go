package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards mutating crawler endpoints with a static bearer token. The
// token is accepted as "Authorization: Bearer <token>" or via the X-Admin-Token
// header. An empty configured token disables the endpoints entirely rather
// than leaving them open.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin endpoints are disabled"})
			return
		}

		provided := c.GetHeader("X-Admin-Token")
		if provided == "" {
			auth := c.GetHeader("Authorization")
			provided = strings.TrimPrefix(auth, "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
			return
		}

		c.Next()
	}
}
