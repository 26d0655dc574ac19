package application

import (
	"context"
	"time"

	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/metrics"
)

const defaultCacheTTL = 5 * time.Minute

func cacheKey(id string) string {
	return "user:cache:" + id
}

func (s *Service) cacheTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return defaultCacheTTL
	}
	return s.CacheTTL
}

func (s *Service) cachedUser(ctx context.Context, id string) (*entity.User, bool) {
	if s.Redis == nil {
		return nil, false
	}
	var u entity.User
	ok, err := helpers.RedisGetVersionedJSON(ctx, s.Redis, cacheKey(id), &u)
	switch {
	case err != nil:
		metrics.UserCacheLookups.WithLabelValues("error").Inc()
		s.Logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		return nil, false
	case !ok:
		metrics.UserCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.UserCacheLookups.WithLabelValues("hit").Inc()
	return &u, true
}

// cacheUser stores u unless the cache already holds the same or a newer
// version, or the user was deleted. A reader that loaded an old version
// therefore cannot overwrite what a later write put there.
func (s *Service) cacheUser(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if _, err := helpers.RedisSetJSONIfNewer(ctx, s.Redis, cacheKey(u.ID), u.Version, u, s.cacheTTL()); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("user cache write failed")
	}
}

// refreshCachedUser writes the committed version after an update. If that
// fails the entry is dropped instead.
func (s *Service) refreshCachedUser(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if _, err := helpers.RedisSetJSONIfNewer(ctx, s.Redis, cacheKey(u.ID), u.Version, u, s.cacheTTL()); err == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, cacheKey(u.ID)); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("user cache eviction failed")
	}
}

// forgetUser leaves a tombstone so an in-flight read of the deleted user
// cannot repopulate the cache. Ids are never reused.
func (s *Service) forgetUser(ctx context.Context, id string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisTombstone(ctx, s.Redis, cacheKey(id), s.cacheTTL()); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("user cache eviction failed")
	}
}
