package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per key (remote address).
// Idle keys are dropped lazily from Allow.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*client
	rps   rate.Limit
	burst int
	idle  time.Duration
	last  time.Time
	now   func() time.Time
}

// New creates a limiter allowing rps requests per second with the given burst per key.
// A non-positive rps disables limiting.
func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*client),
		rps:   rate.Limit(rps),
		burst: burst,
		idle:  10 * time.Minute,
		now:   time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.last) > l.idle {
		l.pruneLocked(now)
	}
	c, ok := l.m[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = c
	}
	c.seen = now
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Prune drops keys idle for longer than the idle window and returns how many were removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(l.now())
}

func (l *Limiter) pruneLocked(now time.Time) int {
	l.last = now
	cutoff := now.Add(-l.idle)
	n := 0
	for k, c := range l.m {
		if c.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}
