package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/user-directory/pkg/metrics"
	"github.com/oksasatya/user-directory/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
// Example: combine client IP and route path for more granular limiting
type KeyFunc func(c *gin.Context) string

// KeyByIP returns a key function that limits by client IP only
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyBySubject limits by the authenticated identity, falling back to client IP.
func KeyBySubject() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// Fixed window counter: INCR, start the window on first hit, and return the
// count with the remaining window in ms so one round trip serves the headers.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type AllowFunc func(*gin.Context) bool // return true for bypass limit

// RateLimit allows max requests per window and per key. It is fail-open: with
// no Redis client, or when Redis errors, requests pass through. OPTIONS
// preflights are never counted.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		count, resetSec, err := hit(c, rdb, keyFn(c), window)
		if err != nil {
			c.Next()
			return
		}

		// https://datatracker.ietf.org/doc/html/rfc6585#section-4
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining(max, count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			metrics.RateLimitBlocked.WithLabelValues(normalizePath(c)).Inc()
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", response.ErrorBody{Code: "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}

func hit(c *gin.Context, rdb *redis.Client, key string, window time.Duration) (count, resetSec int, err error) {
	vals, err := windowScript.Run(c.Request.Context(), rdb, []string{key}, window.Milliseconds()).Slice()
	if err != nil || len(vals) != 2 {
		return 0, 0, errors.Join(err, errors.New("unexpected rate limit reply"))
	}
	count = toInt(vals[0])
	if ms := toInt(vals[1]); ms > 0 {
		resetSec = (ms + 999) / 1000
	}
	return count, resetSec, nil
}

func remaining(max, count int) int {
	if count >= max {
		return 0
	}
	return max - count
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
