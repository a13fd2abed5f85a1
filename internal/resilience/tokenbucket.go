package resilience

import (
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketConfig describes a bucket's capacity and refill rate.
type TokenBucketConfig struct {
	Capacity        int
	RefillRatePerMs float64
}

// TokenBucket is a secondary rate-limiting primitive for adapters that must
// respect an upstream's own per-second cap. It is not wired into the
// default pipeline; an adapter opts in by holding one and calling
// TryConsume before issuing a request.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket constructs a TokenBucket from cfg.
func NewTokenBucket(cfg TokenBucketConfig) *TokenBucket {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1
	}
	ratePerSec := cfg.RefillRatePerMs * 1000
	if ratePerSec <= 0 {
		ratePerSec = float64(capacity)
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSec), capacity)}
}

// TryConsume attempts to take n tokens immediately, returning false without
// blocking if the bucket cannot satisfy the request right now.
func (b *TokenBucket) TryConsume(n int) bool {
	return b.limiter.AllowN(time.Now(), n)
}
