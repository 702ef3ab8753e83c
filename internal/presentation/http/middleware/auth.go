package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/pharmadesk/internal/presentation/http/dto/response"
	"golang.org/x/oauth2"
)

// RequireSession rejects requests that need the pharmacy API while no
// usable bearer token is installed, before any upstream call is made
func RequireSession(tokens oauth2.TokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := tokens.Token(); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
