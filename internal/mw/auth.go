package mw

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyroom-backend/internal/auth"
)

// Authenticate resolves the bearer token through guard and stores the
// principal in the request context. Requests without a valid token are
// rejected with 401.
func Authenticate(guard auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := guard.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrUnauthenticated) {
				msg = "authentication required"
			}
			c.Header("WWW-Authenticate", `Bearer realm="studyroom"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
