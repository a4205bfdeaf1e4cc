package utils

import (
	"context"
	"time"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist revokes JWTs before their natural expiry to support logout.
type TokenBlacklist struct {
	cache Cache
	now   Clock
}

// NewTokenBlacklist stores revocations in cache.
func NewTokenBlacklist(cache Cache, clock Clock) *TokenBlacklist {
	if clock == nil {
		clock = time.Now
	}
	return &TokenBlacklist{cache: cache, now: clock}
}

// Revoke marks token revoked until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return
	}
	b.cache.Set(ctx, blacklistPrefix+token, []byte("1"), ttl)
}

// IsRevoked reports whether token was revoked. Cache errors fail open.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	_, ok := b.cache.Get(ctx, blacklistPrefix+token)
	return ok
}
