package middleware

import (
	"strings"

	"agora/internal/auth"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// LoadIdentity decodes the bearer token, if any, and stores the identity in the
// context. It never aborts: a missing or bad token just leaves the request
// anonymous, and each operation decides whether that is acceptable.
func LoadIdentity(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if id, err := tokens.Decode(token); err == nil {
				c.Set(IdentityKey, id)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by LoadIdentity, or nil.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
