package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/service"
)

// sessionKey is the gin context key the middleware stores the wallet
// session under.
const sessionKey = "walletSession"

// SessionMiddleware validates the bearer token and reconstructs the
// wallet session it encodes. Handlers behind it read the session from
// the request context and nothing else.
func SessionMiddleware(walletService *service.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := walletService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			case errors.Is(err, core.ErrTokenInvalidated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has been invalidated"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}

		c.Set(sessionKey, session.Wallet)
		c.Next()
	}
}

// sessionFromContext returns the wallet session the middleware installed.
func sessionFromContext(c *gin.Context) (core.WalletSession, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return core.WalletSession{}, false
	}
	session, ok := value.(core.WalletSession)
	return session, ok
}
