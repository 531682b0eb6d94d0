package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))

	l := Discard()
	assert.Same(t, l, GetLoggerFromContext(WithLogger(context.Background(), l)))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, false)

	var inner *Logger
	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts/7", nil))

	require.NotNil(t, inner)
	assert.NotSame(t, logger, inner)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug start line is filtered in production")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/contacts/7", entry["path"])
	assert.EqualValues(t, 404, entry["status"])
	assert.Equal(t, "unmatched", entry["route"])
	assert.NotContains(t, entry, "user_id")
	assert.NotEmpty(t, entry["request_id"])
}

func TestRequestLogger_RouteAndUser(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestLogger(NewLoggerWithWriter(&buf, false)))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/contacts/{contactID}", func(w http.ResponseWriter, r *http.Request) {
		SetUserID(r.Context(), "user-42")
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String(), "health checks are logged at debug")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/contacts/7", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "/contacts/{contactID}", entry["route"])
	assert.Equal(t, "user-42", entry["user_id"])
	assert.EqualValues(t, 8, entry["bytes"])
}

func TestSetUserID_OutsideRequestLogger(t *testing.T) {
	assert.NotPanics(t, func() { SetUserID(context.Background(), "user-1") })
}
