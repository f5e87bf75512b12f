package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyedLimiter throttles an action per key (client IP).
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newKeyedLimiter allows perMinute events per key, with a burst of the same size.
func newKeyedLimiter(perMinute int) *keyedLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &keyedLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow reports whether key may act now.
func (k *keyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(k.rate, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = time.Now()
	return e.lim.Allow()
}

// Cleanup drops limiters idle for longer than idle.
func (k *keyedLimiter) Cleanup(idle time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}
