package httpx

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/backoffice/pkg/cryptox"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
)

// Limit is a token bucket: Requests per Window on average, with Burst tokens
// available up front.
type Limit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func (l Limit) rate() rate.Limit {
	return rate.Limit(float64(l.Requests) / l.Window.Seconds())
}

// Profiles shared by the admin routes. Each can be overridden with
// RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC and
// RATELIMIT_<NAME>_BURST.
var (
	// StrictLimit guards password and assertion verification.
	StrictLimit = LimitFromEnv("STRICT", Limit{Requests: 5, Window: time.Minute, Burst: 5})
	// ModerateLimit covers ceremony options and session changes.
	ModerateLimit = LimitFromEnv("MODERATE", Limit{Requests: 20, Window: time.Minute, Burst: 20})
	// LenientLimit covers reads and health probes.
	LenientLimit = LimitFromEnv("LENIENT", Limit{Requests: 100, Window: time.Minute, Burst: 100})
	// PublicLimit covers public pages.
	PublicLimit = LimitFromEnv("PUBLIC", Limit{Requests: 1000, Window: time.Minute, Burst: 1000})
)

type limitEnv struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// LimitFromEnv applies RATELIMIT_<name>_* overrides to def. Unparseable
// input keeps def entirely; non-positive values keep the default field.
func LimitFromEnv(name string, def Limit) Limit {
	var raw limitEnv
	if err := env.ParseWithOptions(&raw, env.Options{Prefix: "RATELIMIT_" + name + "_"}); err != nil {
		return def
	}

	out := def
	if raw.Requests > 0 {
		out.Requests = raw.Requests
	}
	if raw.WindowSec > 0 {
		out.Window = time.Duration(raw.WindowSec) * time.Second
	}
	if raw.Burst > 0 {
		out.Burst = raw.Burst
	}
	return out
}

// KeyFunc groups requests into buckets. An empty key exempts the request.
type KeyFunc func(*http.Request) string

// PrincipalKey keys by the principal AccessControl attached, if any.
func PrincipalKey(r *http.Request) string {
	return principalIDFromCtx(r.Context())
}

// CookieKey keys by a fingerprint of the named cookie, never its value.
func CookieKey(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := CookieValue(r, name); v != "" {
			return FingerprintKey(v)
		}
		return ""
	}
}

// JoinKeys concatenates the non-empty keys of fns with "|".
func JoinKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, "|")
	}
}

// FingerprintKey hashes a secret-bearing value so it can be used as a limiter
// key or logged without leaking the value.
func FingerprintKey(v string) string {
	return cryptox.Fingerprint(v)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key and forgets keys idle for longer than
// idle, so one-off ceremony cookies do not accumulate.
type buckets struct {
	limit Limit
	idle  time.Duration

	mu        sync.Mutex
	m         map[string]*bucket
	lastSweep time.Time
}

func newBuckets(l Limit) *buckets {
	return &buckets{
		limit:     l,
		idle:      max(l.Window, 10*time.Minute),
		m:         make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// take consumes a token for key. When none is available it returns the wait
// until the next one.
func (b *buckets) take(key string, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) > b.idle {
		for k, v := range b.m {
			if now.Sub(v.lastSeen) > b.idle {
				delete(b.m, k)
			}
		}
		b.lastSweep = now
	}

	bk, ok := b.m[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit.rate(), b.limit.Burst)}
		b.m[key] = bk
	}
	bk.lastSeen = now

	if bk.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := bk.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// RateLimit rejects requests beyond l per key with 429 and Retry-After.
func RateLimit(l Limit, key KeyFunc) Middleware {
	b := newBuckets(l)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key for request, not limited")
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.take(k, time.Now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(math.Max(1, math.Ceil(wait.Seconds())))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Requests))
			w.Header().Set("X-RateLimit-Window", l.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", FingerprintKey(k),
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many requests, retry later",
			})
		})
	}
}

// RateLimitByIP buckets by client address.
func RateLimitByIP(l Limit) Middleware {
	return RateLimit(l, ClientIP)
}

// RateLimitByPrincipal buckets by principal and address; anonymous callers
// fall back to the address alone.
func RateLimitByPrincipal(l Limit) Middleware {
	return RateLimit(l, JoinKeys(PrincipalKey, ClientIP))
}

// RateLimitByIPAndCookie gives every in-flight ceremony its own bucket per
// address.
func RateLimitByIPAndCookie(l Limit, cookie string) Middleware {
	return RateLimit(l, JoinKeys(ClientIP, CookieKey(cookie)))
}
