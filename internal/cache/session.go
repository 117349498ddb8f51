package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hris-auth/internal/model"
)

const sessionPrefix = "user:"

// SessionCache keeps a TTL-bound snapshot of each authenticated user so
// request authentication can skip the persistent store.  The cache is a
// pure optimization: absence of an entry must never deny a valid token,
// and a Redis failure is treated as a miss, never as an error.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionCache(rdb *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, ttl: ttl}
}

// GetOrLoad returns the cached snapshot for a user, or invokes loader on a
// miss and caches the result before returning it.  Only loader errors are
// surfaced; store errors fall through to the loader.
func (s *SessionCache) GetOrLoad(ctx context.Context, userID uint64, loader func(context.Context) (model.PublicUser, error)) (model.PublicUser, error) {
	key := sessionPrefix + strconv.FormatUint(userID, 10)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var u model.PublicUser
		if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr == nil {
			return u, nil
		}
		// corrupt entry: fall through and rebuild it
	} else if !errors.Is(err, redis.Nil) {
		// store unavailable: performance path only, treat as miss
	}

	u, err := loader(ctx)
	if err != nil {
		return model.PublicUser{}, err
	}
	if buf, jsonErr := json.Marshal(u); jsonErr == nil {
		// best effort; a failed write just means the next request misses too
		_ = s.rdb.Set(ctx, key, buf, s.ttl).Err()
	}
	return u, nil
}

// Evict drops the snapshot for a user.  Logout must call this so a revoked
// session cannot keep serving a stale authorization snapshot for the rest
// of the TTL window.
func (s *SessionCache) Evict(ctx context.Context, userID uint64) error {
	key := sessionPrefix + strconv.FormatUint(userID, 10)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}
