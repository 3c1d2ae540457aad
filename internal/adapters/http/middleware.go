package http

import (
	"net/http"
	"strings"

	"github.com/Ayush94-1708/music-glass/internal/adapters/signal"
	"github.com/Ayush94-1708/music-glass/internal/auth"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionTokenKey = "ct"

// ClientTokenMiddleware gives every browser a stable anonymous token kept in
// the cookie session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(sessionTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(sessionTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set(signal.CtxClientToken, token)
		c.Next()
	}
}

// AuthMiddleware verifies a bearer token from the Authorization header or
// the token query parameter (browsers cannot set headers on a WebSocket).
// A bad token is always rejected; a missing one only when required.
func AuthMiddleware(verifier *auth.Verifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
				return
			}
			c.Next()
			return
		}
		if !verifier.Enabled() {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth not configured"})
				return
			}
			c.Next()
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(signal.CtxUser, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return c.Query("token")
}
