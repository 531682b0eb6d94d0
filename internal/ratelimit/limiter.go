package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(r *http.Request) string

// ByIP counts requests per client address.
func ByIP(r *http.Request) string {
	return "ip:" + httputil.ClientIP(r)
}

// ByUser counts requests per authenticated user, falling back to the client address.
// It must run after the auth middleware.
func ByUser(r *http.Request) string {
	if u, ok := user.FromContext(r.Context()); ok {
		return "user:" + u.ID.String()
	}
	return ByIP(r)
}

// Limiter applies rate limits backed by a Store. Store failures let requests through.
type Limiter struct {
	store Store
}

func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Middleware rejects requests beyond limit per window with 429.
// name separates the counters of different policies.
func (l *Limiter) Middleware(name string, limit int, window time.Duration, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			key := keyFn(r)

			res, err := l.store.Allow(r.Context(), name+":"+key, limit, window)
			if err != nil {
				logger.Error("failed to check rate limit", "policy", name, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				logger.Warn("rate limit exceeded", "policy", name, "key", key)
				w.Header().Set("Retry-After", retryAfterSeconds(res.RetryAfter))
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Cooldown reports whether key is still cooling down. A call that is let through starts a new cooldown.
func (l *Limiter) Cooldown(ctx context.Context, key string, d time.Duration) (bool, error) {
	res, err := l.store.Allow(ctx, "cooldown:"+key, 1, d)
	if err != nil {
		return false, err
	}
	return !res.Allowed, nil
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
