package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/user-directory/internal/interface/http"
	"github.com/oksasatya/user-directory/internal/interface/middleware"
)

// UserModule wires the user directory routes under /v1/users.
// Authenticated: GET /whoami, GET /register
// Admin role: everything else
type UserModule struct {
	Handler   *handlers.UserHandler
	Identity  middleware.TokenVerifier
	Redis     *redis.Client
	AdminRole string
	PerMinute int
}

func NewUserModule(h *handlers.UserHandler, identity middleware.TokenVerifier, rdb *redis.Client, adminRole string, perMinute int) *UserModule {
	return &UserModule{Handler: h, Identity: identity, Redis: rdb, AdminRole: adminRole, PerMinute: perMinute}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/v1/users")
	users.Use(
		middleware.RateLimit(m.Redis, m.PerMinute*2, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.Authenticate(m.Identity),
		middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyBySubject(), middleware.AllowRole(m.AdminRole)),
	)

	users.GET("/whoami", m.Handler.WhoAmI)
	users.GET("/register", m.Handler.Register)

	admin := users.Group("")
	admin.Use(middleware.RequireRole(m.AdminRole))
	{
		admin.GET("", m.Handler.List)
		admin.POST("", m.Handler.Create)
		admin.GET("/search", m.Handler.Search)
		admin.GET("/nickname/:nickname", m.Handler.GetByNickname)
		admin.GET("/email/:email", m.Handler.GetByEmail)
		admin.GET("/:id", m.Handler.GetByID)
		admin.PUT("/nickname/:nickname", m.Handler.UpdateByNickname)
		admin.PUT("/email/:email", m.Handler.UpdateByEmail)
		admin.PUT("/:id", m.Handler.UpdateByID)
		admin.DELETE("/nickname/:nickname", m.Handler.DeleteByNickname)
		admin.DELETE("/email/:email", m.Handler.DeleteByEmail)
		admin.DELETE("/:id", m.Handler.DeleteByID)
		admin.POST("/:id/picture", m.Handler.UploadPicture)
	}
}
