package helpers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Versioned JSON entries live in a hash: "version" and "data", or "deleted"
// for a tombstone. A tombstone blocks every later write until it expires.
var setIfNewerScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], "deleted") == 1 then
  return 0
end
local current = redis.call("HGET", KEYS[1], "version")
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "version", ARGV[1], "data", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

var tombstoneScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], "deleted", "1")
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// RedisSetJSONIfNewer stores value under key unless the cached entry already
// has version or newer, or is a tombstone. It reports whether it wrote.
func RedisSetJSONIfNewer(ctx context.Context, rdb *redis.Client, key string, version int64, value interface{}, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	n, err := setIfNewerScript.Run(ctx, rdb, []string{key}, version, string(b), ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RedisTombstone replaces key with a tombstone that lives for ttl.
func RedisTombstone(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) error {
	return tombstoneScript.Run(ctx, rdb, []string{key}, ttl.Milliseconds()).Err()
}

// RedisGetVersionedJSON reports false without error on a miss or a tombstone.
func RedisGetVersionedJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	vals, err := rdb.HMGet(ctx, key, "deleted", "data").Result()
	if err != nil {
		return false, err
	}
	if vals[0] != nil {
		return false, nil
	}
	data, ok := vals[1].(string)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, err
	}
	return true, nil
}

func RedisDel(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err()
}
