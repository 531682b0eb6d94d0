package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/contact"
	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/metrics"
	"github.com/redmonkez12/go-contacts-api/internal/ratelimit"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// Deps are the collaborators the router wires into routes.
// Limiter, Metrics and Gatherer are optional.
type Deps struct {
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	UserHandler    *user.Handler
	ContactHandler *contact.Handler
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Collector
	Gatherer       prometheus.Gatherer
	Logger         *logging.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			MaxAge:         300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	authLimit := rateLimit(deps.Limiter, "auth", cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, ratelimit.ByIP)
	contactsLimit := rateLimit(deps.Limiter, "contacts", cfg.RateLimit.ContactsLimit, cfg.RateLimit.ContactsWindow, ratelimit.ByUser)

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/signup", deps.AuthHandler.Signup)
		r.With(authLimit).Post("/login", deps.AuthHandler.Login)
		r.Get("/refresh_token", deps.AuthHandler.RefreshToken)
		r.Get("/confirmed_email/{token}", deps.AuthHandler.ConfirmedEmail)
		r.With(authLimit).Post("/request_email", deps.AuthHandler.RequestEmail)
		r.With(deps.AuthMiddleware.RequireAuth).Post("/logout", deps.AuthHandler.Logout)
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.With(contactsLimit).Get("/", deps.ContactHandler.List)
		r.With(contactsLimit).Post("/", deps.ContactHandler.Create)

		r.Get("/me", deps.UserHandler.Me)
		r.Patch("/avatar", deps.UserHandler.UpdateAvatar)

		r.Get("/{contactID}", deps.ContactHandler.Get)
		r.Put("/{contactID}", deps.ContactHandler.Update)
		r.Delete("/{contactID}", deps.ContactHandler.Delete)
	})

	return r
}

// rateLimit returns a pass-through middleware when no limiter is configured.
func rateLimit(l *ratelimit.Limiter, name string, limit int, window time.Duration, keyFn ratelimit.KeyFunc) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Middleware(name, limit, window, keyFn)
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
