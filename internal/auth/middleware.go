package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

var (
	errMissingAuth       = errors.New("missing authentication")
	errInvalidAuthHeader = errors.New("invalid authorization header format")
)

// Middleware handles authentication for protected routes
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth resolves the bearer access token to a user and stores it in the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token, err := bearerToken(r)
		if err != nil {
			respondUnauthenticated(w, err)
			return
		}

		u, err := m.service.ResolveCurrentUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				logger.Warn("access token rejected", "error", err.Error())
				respondUnauthenticated(w, err)
				return
			}
			logger.Error("failed to resolve current user", "error", err.Error())
			respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		logging.SetUserID(r.Context(), u.ID.String())
		ctx := user.WithUser(r.Context(), u)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": u.ID}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuth
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errInvalidAuthHeader
	}

	return token, nil
}

// respondUnauthenticated answers 401 without revealing why a token was rejected.
func respondUnauthenticated(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", "Bearer")

	switch {
	case errors.Is(err, errMissingAuth):
		respondError(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
	case errors.Is(err, errInvalidAuthHeader):
		respondError(w, "Invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
	default:
		respondError(w, "Could not validate credentials", httputil.CodeUnauthenticated, http.StatusUnauthorized)
	}
}
