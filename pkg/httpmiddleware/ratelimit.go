package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max requests per key within one window.
	Max    int
	Window time.Duration
	// KeyFunc picks the bucket of a request. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// window keeps the counts of the current and the previous fixed window.
type window struct {
	prev      float64
	curr      float64
	currStart time.Time
}

// RateLimiter enforces a per-key sliding window limit. The previous
// window's count is weighted by how much of it still overlaps the sliding
// window.
type RateLimiter struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*window
}

// NewRateLimiter creates a RateLimiter. Run evicts idle keys.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow records a request for key if it fits the limit.
func (rl *RateLimiter) Allow(key string) (remaining int, resetAt time.Time, ok bool) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, found := rl.windows[key]
	if !found {
		w = &window{currStart: now.Truncate(rl.cfg.Window)}
		rl.windows[key] = w
	}
	if elapsed := now.Sub(w.currStart); elapsed >= rl.cfg.Window {
		w.prev = w.curr
		if elapsed >= 2*rl.cfg.Window {
			w.prev = 0
		}
		w.curr = 0
		w.currStart = now.Truncate(rl.cfg.Window)
	}

	overlap := max(0, 1-now.Sub(w.currStart).Seconds()/rl.cfg.Window.Seconds())
	count := w.prev*overlap + w.curr
	resetAt = w.currStart.Add(rl.cfg.Window)
	if count >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}
	w.curr++
	return max(0, int(float64(rl.cfg.Max)-count-1)), resetAt, true
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if now.Sub(w.currStart) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// Run evicts idle keys every two windows until ctx is canceled.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(2 * rl.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

// Middleware rejects requests over the limit with 429. Every response
// carries X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := rl.Allow(rl.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
			if !ok {
				retry := max(0, resetAt.Sub(rl.now()))
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit is a shorthand for NewRateLimiter(cfg).Middleware() without
// key eviction.
func RateLimit(cfg RateLimitConfig) Middleware {
	return NewRateLimiter(cfg).Middleware()
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the host of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
