package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/pkg/response"
)

// Authenticate validates the identity token and stores its claims in the Gin
// context under CtxIdentityKey, and the subject under CtxUserIDKey.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWith(c, apperror.ErrUnauthorized.WithMessage("missing identity token"))
			return
		}
		claims, err := v.Verify(token)
		if err != nil {
			abortWith(c, apperror.ErrUnauthorized.WithMessage("invalid identity token"))
			return
		}
		c.Set(CtxIdentityKey, claims)
		c.Set(CtxUserIDKey, claims.Subject)
		c.Next()
	}
}

// RequireRole rejects callers whose identity lacks role. It must run after Authenticate.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := IdentityFrom(c)
		if !ok {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}
		if !claims.HasRole(role) {
			abortWith(c, apperror.ErrForbidden.WithMessage("role "+role+" required"))
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, err apperror.Error) {
	response.Abort(c, err.HTTPStatus(), err.Message(), response.ErrorBody{Code: err.Code()})
}
