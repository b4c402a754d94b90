package httpx

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/pixhost/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token bucket: Requests per Window, with up to
// Burst requests allowed back to back. A zero Requests disables limiting.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Enabled reports whether the config describes an actual limit.
func (c RateLimitConfig) Enabled() bool {
	return c.Requests > 0 && c.Window > 0
}

var (
	// StrictLimit for credential-bearing endpoints (login, token, register).
	StrictLimit = RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 10}

	// ModerateLimit for authenticated writes such as uploads.
	ModerateLimit = RateLimitConfig{Requests: 60, Window: time.Minute, Burst: 20}
)

// RateLimitFromEnv overrides fields of def from RATELIMIT_<tier>_REQUESTS,
// RATELIMIT_<tier>_WINDOW_SEC and RATELIMIT_<tier>_BURST. Invalid or
// non-positive values are ignored, except REQUESTS=0 which turns the tier off.
func RateLimitFromEnv(tier string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	prefix := "RATELIMIT_" + tier + "_"

	if v, ok := os.LookupEnv(prefix + "REQUESTS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Requests = n
		}
	}
	if v, ok := os.LookupEnv(prefix + "WINDOW_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Window = time.Duration(n) * time.Second
		}
	}
	if v, ok := os.LookupEnv(prefix + "BURST"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Burst = n
		}
	}
	return cfg
}

// KeyFunc picks the bucket a request is charged to. An empty key means the
// request is not limited.
type KeyFunc func(*http.Request) string

// ByIP keys requests on the client address.
func ByIP(r *http.Request) string { return GetRemoteIP(r) }

// ByIPAndFormField keys requests on client address plus a form value, so a
// single address guessing passwords for many accounts still gets a bucket
// per account.
func ByIPAndFormField(field string) KeyFunc {
	return func(r *http.Request) string {
		ip := GetRemoteIP(r)
		if err := r.ParseForm(); err != nil {
			return ip
		}
		if v := r.PostFormValue(field); v != "" {
			return ip + ":" + v
		}
		return ip
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per key. Buckets idle for longer than
// idleAfter are dropped on the next sweep.
type limiterSet struct {
	cfg       RateLimitConfig
	idleAfter time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}
	cfg.Burst = burst

	return &limiterSet{
		cfg:       cfg,
		idleAfter: max(cfg.Window*2, 5*time.Minute),
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.idleAfter {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idleAfter {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	if !ok {
		every := rate.Every(s.cfg.Window / time.Duration(s.cfg.Requests))
		b = &bucket{limiter: rate.NewLimiter(every, s.cfg.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimit returns middleware enforcing cfg per key. A disabled config
// yields a pass-through middleware.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	set := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			limiter := set.get(k, now)

			res := limiter.ReserveN(now, 1)
			if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
				res.CancelAt(now)

				retryAfter := max(int(delay.Round(time.Second).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					"key", k,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": "too many requests, try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
