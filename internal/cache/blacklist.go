// Package cache wraps the shared Redis store behind the three expiring
// state holders of the auth core: the token denylist, the session snapshot
// cache and the password-reset code store.  All of them rely on Redis TTL
// eviction as the only deletion path; no component sweeps keys manually.
// The client is injected so tests can swap in an in-process server.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hris-auth/internal/utils"
)

// ErrStoreUnavailable is returned when a Redis round-trip fails.  Callers
// on the revocation path must treat it as "revoked" (fail closed); callers
// on the cache path may treat it as a miss (fail open).
var ErrStoreUnavailable = errors.New("key-value store unavailable")

const blacklistPrefix = "blacklist:"

// Blacklist is the revocation registry.  A key per revoked token string,
// expiring exactly when the token itself would have; after natural expiry
// the signature check rejects the token anyway, so the entry is redundant
// and Redis may drop it.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist { return &Blacklist{rdb: rdb} }

// Revoke denylists a token for the remainder of its natural lifetime, read
// from the token's own exp claim without verifying the signature.  Tokens
// already past expiry are a no-op: there is nothing left to protect
// against.
func (b *Blacklist) Revoke(ctx context.Context, token string) error {
	ttl := utils.TokenRemainingTTL(token, time.Now().UTC())
	if ttl <= 0 {
		return nil
	}
	if err := b.rdb.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

// IsRevoked reports whether a token has been denylisted.  A store failure
// comes back as (true, ErrStoreUnavailable): authentication must fail
// closed when the registry cannot be consulted.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return true, ErrStoreUnavailable
	}
	return n == 1, nil
}
