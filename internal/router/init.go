package router

import (
	appuser "github.com/oksasatya/user-directory/internal/application"
	"github.com/oksasatya/user-directory/internal/container"
	"github.com/oksasatya/user-directory/internal/infrastructure/search"
	handlers "github.com/oksasatya/user-directory/internal/interface/http"
	"github.com/oksasatya/user-directory/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

// buildUserDeps assembles the service from the container. Optional
// integrations are only assigned when present so the service sees a nil
// interface rather than a typed nil.
func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	store := container.GetStore()

	service := appuser.NewService(store.Users, store.Tx, container.GetLogger())
	service.CacheTTL = cfg.UserCacheTTL
	if rdb := container.GetRedis(); rdb != nil {
		service.Redis = rdb
	}
	if pub := container.GetRabbitPub(); pub != nil {
		service.Events = pub
	}
	if es := container.GetES(); es != nil {
		service.Search = search.NewUserIndex(es, cfg.ESUsersIndex)
	}
	if pics := container.GetPictures(); pics != nil {
		service.Pictures = pics
	}

	return UserModuleDeps{
		Service: service,
		Handler: handlers.NewUserHandler(service, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetIdentity(), container.GetRedis(), cfg.AdminRole, cfg.RateLimitPerMinute))
	r.AddRoot(modules.NewOpsModule(container.GetStore().Ping, cfg.MetricsEnabled))
}
