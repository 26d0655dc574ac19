package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

const (
	CtxUserIDKey   = "userID"
	CtxIdentityKey = "identity"
)

// TokenVerifier turns a raw identity token into claims.
type TokenVerifier interface {
	Verify(token string) (entity.IdentityClaims, error)
}

// bearerToken reads the Authorization header, falling back to the access_token cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	token, err := c.Cookie("access_token")
	if err != nil {
		return ""
	}
	return token
}

// IdentityFrom returns the claims stored by Authenticate.
func IdentityFrom(c *gin.Context) (entity.IdentityClaims, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return entity.IdentityClaims{}, false
	}
	claims, ok := v.(entity.IdentityClaims)
	return claims, ok
}
