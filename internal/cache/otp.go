package cache

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpPrefix = "otp:"

// OTPStore holds at most one active password-reset code per e-mail
// address.  Storing a new code overwrites the previous one, which is how a
// re-requested code implicitly invalidates its predecessor.
type OTPStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOTPStore(rdb *redis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{rdb: rdb, ttl: ttl}
}

// Put stores a code for an e-mail address with the configured validity
// window.
func (o *OTPStore) Put(ctx context.Context, email, code string) error {
	if err := o.rdb.Set(ctx, otpKey(email), code, o.ttl).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

// Verify reports whether the submitted code matches the stored one.  On a
// match the code is deleted so it cannot be replayed within the remaining
// TTL window.  Absent, expired and mismatching codes all come back false.
func (o *OTPStore) Verify(ctx context.Context, email, submitted string) (bool, error) {
	stored, err := o.rdb.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, ErrStoreUnavailable
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return false, nil
	}
	// single use: a verified code is burned immediately
	if err := o.rdb.Del(ctx, otpKey(email)).Err(); err != nil {
		return false, ErrStoreUnavailable
	}
	return true, nil
}

func otpKey(email string) string {
	return otpPrefix + strings.ToLower(strings.TrimSpace(email))
}
