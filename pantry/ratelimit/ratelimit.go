// ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// bucket is a token bucket refilled continuously at rate tokens/second.
type bucket struct {
	tokens   float64
	last     time.Time
	lastSeen time.Time
}

// KeyLimiter keeps one token bucket per key (normally the client IP).
// Idle keys are dropped after ttl by a janitor goroutine; Close stops it.
type KeyLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
}

// PerMinute allows n requests per minute per key with a burst of n.
func PerMinute(n int, ttl time.Duration) *KeyLimiter {
	return NewKeyLimiter(float64(n)/60, n, ttl)
}

// NewKeyLimiter allows rate requests/second per key with the given burst.
func NewKeyLimiter(rate float64, burst int, ttl time.Duration) *KeyLimiter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go kl.janitor()
	return kl
}

// Allow consumes one token for key if one is available.
func (kl *KeyLimiter) Allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	b, ok := kl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(kl.burst), last: now}
		kl.buckets[key] = b
	}
	b.lastSeen = now

	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*kl.rate, float64(kl.burst))
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is the wait, in whole seconds, until key earns a token.
func (kl *KeyLimiter) RetryAfter(key string) int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	b, ok := kl.buckets[key]
	if !ok || kl.rate <= 0 {
		return 1
	}
	missing := 1 - b.tokens
	if missing <= 0 {
		return 0
	}
	return max(int(missing/kl.rate+0.999), 1)
}

// Len reports the number of tracked keys.
func (kl *KeyLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

func (kl *KeyLimiter) Close() {
	close(kl.stop)
	<-kl.done
}

func (kl *KeyLimiter) janitor() {
	defer close(kl.done)

	ticker := time.NewTicker(kl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.sweep()
		}
	}
}

func (kl *KeyLimiter) sweep() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	now := kl.now()
	for key, b := range kl.buckets {
		if now.Sub(b.lastSeen) > kl.ttl {
			delete(kl.buckets, key)
		}
	}
}

// ClientIP keys on RemoteAddr without its port. Run chi's RealIP first so
// proxied requests carry the client address.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware rejects requests over the limit. onLimited writes the
// response (Retry-After is already set); nil sends a plain 429.
func Middleware(kl *KeyLimiter, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r)
			if kl.Allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.Itoa(kl.RetryAfter(key)))
			if onLimited != nil {
				onLimited(w, r)
				return
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
