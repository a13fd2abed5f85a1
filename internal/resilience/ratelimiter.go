package resilience

import (
	"sync"
	"time"
)

// RateLimiterConfig controls one sliding window.
type RateLimiterConfig struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultRateLimiterConfig returns a modest default: 100 requests per minute.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{Window: time.Minute, MaxRequests: 100}
}

type window struct {
	start time.Time
	count int
}

// RateLimiter is a sliding-window counter keyed by a caller-chosen
// identifier (hashed API key, client IP). It is a library primitive: the
// core adapter pipeline never consults it directly, only the HTTP edge
// collaborator that fronts the gateway.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimiterConfig
	windows map[string]*window
}

// NewRateLimiter constructs a RateLimiter with cfg.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	return &RateLimiter{cfg: cfg, windows: make(map[string]*window)}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Allow admits or denies a request for identifier, starting a new window
// when none is active or the current one has expired.
func (rl *RateLimiter) Allow(identifier string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[identifier]
	windowEnd := func(w *window) time.Time { return w.start.Add(rl.cfg.Window) }

	if !ok || now.After(windowEnd(w)) || now.Equal(windowEnd(w)) {
		w = &window{start: now, count: 0}
		rl.windows[identifier] = w
	}

	if w.count < rl.cfg.MaxRequests {
		w.count++
		return Decision{Allowed: true}
	}

	return Decision{Allowed: false, RetryAfter: windowEnd(w).Sub(now)}
}

// Reset clears the window tracked for identifier, if any.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, identifier)
}
