package ratelimiter

import (
	"net"
	"sync"
	"time"
)

// idleAfter is how long a bucket may go unused before it is dropped.
const idleAfter = 10 * time.Minute

// TokenBucket refills at rate tokens per second up to capacity.
type TokenBucket struct {
	capacity int
	tokens   float64
	rate     float64
	last     time.Time
}

// Limiter keeps one token bucket per key, e.g. client IP plus plugin name.
type Limiter struct {
	mu        sync.Mutex
	store     map[string]*TokenBucket
	now       func() time.Time
	lastSweep time.Time
}

func New() *Limiter { return &Limiter{store: map[string]*TokenBucket{}, now: time.Now} }

func (l *Limiter) Allow(key string, rps, burst int) bool {
	if rps <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)

	b, ok := l.store[key]
	if !ok {
		capacity := max(1, burst)
		b = &TokenBucket{capacity: capacity, tokens: float64(capacity), rate: float64(rps), last: now}
		l.store[key] = b
	}
	b.tokens = min(float64(b.capacity), b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// sweep drops idle buckets at most once per idleAfter.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleAfter {
		return
	}
	l.lastSweep = now
	for k, b := range l.store {
		if now.Sub(b.last) >= idleAfter {
			delete(l.store, k)
		}
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.store)
}

func ClientIP(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}
