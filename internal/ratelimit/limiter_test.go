package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/user"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimiter_Middleware(t *testing.T) {
	store, _ := newRedisStore(t)
	h := New(store).Middleware("contacts", 2, time.Minute, ByIP)(okHandler())

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/contacts", nil)
		r.RemoteAddr = "10.0.0.7:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")
}

func TestLimiter_FailsOpen(t *testing.T) {
	h := New(failingStore{}).Middleware("contacts", 1, time.Minute, ByIP)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiter_Cooldown(t *testing.T) {
	store, mr := newRedisStore(t)
	l := New(store)
	ctx := context.Background()

	active, err := l.Cooldown(ctx, "resend:a@example.com", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = l.Cooldown(ctx, "resend:a@example.com", 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, active)

	mr.FastForward(2*time.Minute + time.Second)

	active, err = l.Cooldown(ctx, "resend:a@example.com", 2*time.Minute)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestKeyFuncs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.10:5000"
	assert.Equal(t, "ip:192.168.1.10", ByIP(r))
	assert.Equal(t, "ip:192.168.1.10", ByUser(r))

	id := uuid.New()
	r = r.WithContext(user.WithUser(r.Context(), &user.User{ID: id}))
	assert.Equal(t, "user:"+id.String(), ByUser(r))
}
