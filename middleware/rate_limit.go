package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Kramxie/neo-routine-sub000/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

// RateLimitMiddleware applies a per-IP token bucket refilling perMinute tokens
// each minute. Each call returns an independent set of buckets.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	perMinute = max(perMinute, 1)
	set := &limiterSet{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}

	return func(ctx *gin.Context) {
		if !set.get(ctx.ClientIP()).Allow() {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.limiters {
		if now.After(l.expires) {
			delete(s.limiters, k)
		}
	}

	if l, ok := s.limiters[key]; ok {
		l.expires = now.Add(limiterIdleTTL)
		return l.limiter
	}
	l := &rateLimiter{
		limiter: rate.NewLimiter(s.limit, s.burst),
		expires: now.Add(limiterIdleTTL),
	}
	s.limiters[key] = l
	return l.limiter
}
