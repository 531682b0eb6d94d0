package logging

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestInfoKey
)

var fallbackLogger = NewLogger(false)

// quietRoutes are polled by load balancers and Prometheus; their completion is logged at debug.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// WithLogger stores a logger in the context, e.g. for background jobs started outside a request.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// requestInfo collects fields learned while the request is handled.
type requestInfo struct {
	userID string
}

// SetUserID records the authenticated user on the request's completion line.
// It is a no-op outside RequestLogger.
func SetUserID(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = userID
	}
}

// RequestLogger logs one line per finished request with its chi route pattern,
// status, size and the authenticated user, if any.
func RequestLogger(logger *Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.WithFields(map[string]any{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote_ip":  r.RemoteAddr,
			})
			reqLogger.Debug("request started")

			info := &requestInfo{}
			ctx := WithLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, requestInfoKey, info)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			case quietRoutes[route]:
				level = slog.LevelDebug
			}

			attrs := []any{
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if info.userID != "" {
				attrs = append(attrs, "user_id", info.userID)
			}
			reqLogger.Log(r.Context(), level, "request completed", attrs...)
		})
	}
}

// GetLoggerFromContext retrieves the logger from the request context
func GetLoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return fallbackLogger
}
