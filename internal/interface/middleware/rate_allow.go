package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses rate limiting for loopback and private-range clients
// (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16), e.g. in-cluster scrapers.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowRole bypasses rate limiting for authenticated callers holding role.
func AllowRole(role string) AllowFunc {
	return func(c *gin.Context) bool {
		claims, ok := IdentityFrom(c)
		return ok && role != "" && claims.HasRole(role)
	}
}
