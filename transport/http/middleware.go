package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/service"
)

// Context keys set by AuthMiddleware.
const (
	ctxSession = "session"
	ctxToken   = "sessionToken"
)

// AuthMiddleware validates the bearer token and stores the session in the
// request context. Every failure is a 401, never a 500, so callers cannot
// distinguish missing from expired from revoked tokens by status code.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrSessionExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			}
			return
		}

		c.Set(ctxSession, session)
		c.Set(ctxToken, token)

		c.Next()
	}
}

func sessionFrom(c *gin.Context) *core.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	session, _ := v.(*core.Session)
	return session
}
