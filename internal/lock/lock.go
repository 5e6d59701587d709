// Package lock keeps two batch processes from feeding the same server.
//
// The lease is a single Redis key set with NX and a TTL. Its value is a
// random token so that only the holder can extend or release it.
package lock

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/util"
)

const keyPrefix = "infinitetalk:lock:"

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Key returns the lock key for a server base URL.
func Key(baseURL string) string {
	return keyPrefix + strings.TrimRight(baseURL, "/")
}

type Lock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// Acquire takes the lease on key for ttl. It fails with CONFLICT if another
// process holds it.
func Acquire(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (*Lock, error) {
	token := util.NewToken()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "lock.acquire", "redis unavailable")
	}
	if !ok {
		return nil, errors.Conflict("another batch is already feeding this server").
			WithField("key", key)
	}
	return &Lock{rdb: rdb, key: key, token: token, ttl: ttl}, nil
}

func (l *Lock) Key() string   { return l.key }
func (l *Lock) Token() string { return l.token }

// Refresh extends the lease by the original ttl. It fails with CONFLICT if
// the lease expired or was taken over.
func (l *Lock) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.rdb, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "lock.refresh", "redis unavailable")
	}
	if n == 0 {
		return errors.Conflict("server lock lost").WithField("key", l.key)
	}
	return nil
}

// Release deletes the lease if it is still ours.
func (l *Lock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Result(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "lock.release", "redis unavailable")
	}
	return nil
}
